// Package conversation appends user turns to the day's transcript and asks
// the language model for replies.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/refloapp/reflo/backend/internal/model/journal"
	"github.com/refloapp/reflo/backend/internal/model/settings"
	"github.com/refloapp/reflo/backend/internal/service/session"
)

var (
	// ErrEmptyMessage rejects blank or whitespace-only input before any
	// model traffic happens.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrReplyPending rejects a submit while a prior one is still waiting
	// on the model. The caller retries after the first reply lands.
	ErrReplyPending = errors.New("a reply is already pending")
)

// Service drives the reply chain. At most one model call is outstanding at a
// time; overlapping submits are refused, not queued.
type Service struct {
	sessions *session.Service
	chain    compose.Runnable[map[string]any, *schema.Message]

	mu      sync.Mutex
	pending bool
}

// NewService compiles the reply chain against the supplied chat model.
func NewService(ctx context.Context, chatModel model.ChatModel, sessions *session.Service) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	return &Service{sessions: sessions, chain: runnable}, nil
}

// EnsureOpeningPrompt synthesizes the day's single prompt turn when the
// transcript is empty. Idempotent: once any turn exists the transcript is
// returned untouched.
func EnsureOpeningPrompt(transcript journal.Transcript, hour int, language settings.Language) journal.Transcript {
	if !transcript.Empty() {
		return transcript
	}

	transcript.Turns = []journal.Turn{{
		ID:        uuid.NewString(),
		Kind:      journal.KindPrompt,
		Reply:     Greeting(hour, language),
		CreatedAt: time.Now().UTC(),
	}}
	return transcript
}

// Submit appends a user turn and its model reply to the transcript, then
// persists the whole transcript. On model failure the transcript is unchanged
// and the error surfaced, so the caller can keep the user's text for retry.
func (s *Service) Submit(ctx context.Context, userText string) (journal.Transcript, error) {
	return s.submit(ctx, userText, nil)
}

// SubmitStream behaves like Submit but delivers the reply incrementally:
// onDelta is invoked for every non-empty content chunk before the completed
// exchange is persisted.
func (s *Service) SubmitStream(ctx context.Context, userText string, onDelta func(chunk string)) (journal.Transcript, error) {
	if onDelta == nil {
		return journal.Transcript{}, errors.New("delta callback is required")
	}
	return s.submit(ctx, userText, onDelta)
}

func (s *Service) submit(ctx context.Context, userText string, onDelta func(chunk string)) (journal.Transcript, error) {
	trimmed := strings.TrimSpace(userText)
	if trimmed == "" {
		return journal.Transcript{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return journal.Transcript{}, ErrReplyPending
	}
	s.pending = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
	}()

	transcript, err := s.sessions.Load(ctx)
	if err != nil {
		return journal.Transcript{}, err
	}

	input := map[string]any{
		"system":  listenerSystemPrompt,
		"history": historyMessages(transcript),
		"query":   trimmed,
	}

	var reply string
	if onDelta == nil {
		reply, err = s.invoke(ctx, input)
	} else {
		reply, err = s.stream(ctx, input, onDelta)
	}
	if err != nil {
		return journal.Transcript{}, err
	}

	transcript.Turns = append(transcript.Turns, journal.Turn{
		ID:        uuid.NewString(),
		Kind:      journal.KindExchange,
		User:      trimmed,
		Reply:     reply,
		CreatedAt: time.Now().UTC(),
	})

	if err := s.sessions.Save(ctx, transcript); err != nil {
		return journal.Transcript{}, err
	}

	log.Printf("[conversation] appended exchange, transcript now %d turns", len(transcript.Turns))
	return transcript, nil
}

func (s *Service) invoke(ctx context.Context, input map[string]any) (string, error) {
	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run reply chain: %w", err)
	}
	return replyContent(response), nil
}

func (s *Service) stream(ctx context.Context, input map[string]any, onDelta func(chunk string)) (string, error) {
	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to stream reply chain: %w", err)
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", fmt.Errorf("failed to receive reply chunk: %w", recvErr)
		}
		if chunk == nil {
			continue
		}
		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			onDelta(chunk.Content)
		}
	}

	if len(chunks) == 0 {
		return fallbackReply, nil
	}
	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", fmt.Errorf("failed to assemble streamed reply: %w", err)
	}
	return replyContent(response), nil
}

// replyContent extracts the reply string. An absent or empty body yields the
// fixed fallback string rather than a failure.
func replyContent(response *schema.Message) string {
	if response == nil {
		return fallbackReply
	}
	content := strings.TrimSpace(response.Content)
	if content == "" {
		return fallbackReply
	}
	return content
}

// historyMessages renders prior exchange turns as user/assistant pairs for
// the prompt template. The opening prompt is not replayed to the model.
func historyMessages(transcript journal.Transcript) []*schema.Message {
	exchanges := transcript.Exchanges()
	if len(exchanges) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(exchanges)*2)
	for _, turn := range exchanges {
		history = append(history, schema.UserMessage(turn.User))
		history = append(history, schema.AssistantMessage(turn.Reply, nil))
	}
	return history
}
