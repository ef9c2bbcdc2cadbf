// Package enrichment derives the day's mood classification and topic summary
// from the finished transcript when the user leaves the session.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/refloapp/reflo/backend/internal/analysis/mood"
	"github.com/refloapp/reflo/backend/internal/model/journal"
	"github.com/refloapp/reflo/backend/internal/model/settings"
	"github.com/refloapp/reflo/backend/internal/service/session"
	"github.com/refloapp/reflo/backend/internal/store"
)

const moodSystemPrompt = "You review a personal journal conversation and classify the writer's overall mood for that day. " +
	"Answer with exactly one line of the form \"<category>, <intensity>\" where <category> is one of awful, bad, okay, good, great " +
	"and <intensity> is an integer from 1 to 5. Lean toward decisive answers at the ends of the scale rather than neutral middle values. " +
	"Output nothing else."

const moodUserPrompt = "Conversation:\n{transcript}\n\nClassify the writer's mood."

const topicSystemPrompt = "You summarize the themes of a personal journal conversation. " +
	"Answer in {language} with a theme description of at most 9 words. " +
	"Separate multiple distinct themes with \" , \". Output nothing else."

const topicUserPrompt = "Conversation:\n{transcript}\n\nDescribe the themes discussed."

// Service runs the two post-session model calls and writes the date-scoped
// mood and topic records. A run is best effort: failures are logged and the
// records simply stay absent until the next session-end trigger.
type Service struct {
	kv       store.KV
	sessions *session.Service
	moods    compose.Runnable[map[string]any, *schema.Message]
	topics   compose.Runnable[map[string]any, *schema.Message]

	mu        sync.Mutex
	enriching bool
}

// NewService compiles the mood and topic chains against the supplied model.
func NewService(ctx context.Context, chatModel model.ChatModel, sessions *session.Service, kv store.KV) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	moods, err := compileChain(ctx, chatModel, moodSystemPrompt, moodUserPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to compile mood chain: %w", err)
	}
	topics, err := compileChain(ctx, chatModel, topicSystemPrompt, topicUserPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to compile topic chain: %w", err)
	}

	return &Service{kv: kv, sessions: sessions, moods: moods, topics: topics}, nil
}

func compileChain(ctx context.Context, chatModel model.ChatModel, system, user string) (compose.Runnable[map[string]any, *schema.Message], error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)
	return chain.Compile(ctx)
}

// Run executes both enrichment calls sequentially over the current day's
// transcript. A run already in flight, or an empty transcript, makes the
// trigger a no-op. The mood and topic writes are independent: one failing
// never blocks the other.
func (s *Service) Run(ctx context.Context, language settings.Language) error {
	s.mu.Lock()
	if s.enriching {
		s.mu.Unlock()
		log.Printf("[enrichment] run already in flight, skipping trigger")
		return nil
	}
	s.enriching = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.enriching = false
		s.mu.Unlock()
	}()

	transcript, err := s.sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("load transcript for enrichment: %w", err)
	}
	if transcript.Empty() {
		return nil
	}

	flat := Flatten(transcript)
	date := s.sessions.Today()

	s.classifyMood(ctx, flat, date)
	s.summarizeTopics(ctx, flat, date, language)
	return nil
}

func (s *Service) classifyMood(ctx context.Context, flat, date string) {
	response, err := s.moods.Invoke(ctx, map[string]any{"transcript": flat})
	if err != nil {
		log.Printf("[enrichment] mood classification failed: %v", err)
		return
	}
	if response == nil {
		log.Printf("[enrichment] mood classification returned no message")
		return
	}

	classification, err := mood.ParseClassification(response.Content)
	if err != nil {
		// No retry and no fallback write: the day simply has no mood record.
		log.Printf("[enrichment] discarding unparsable mood output %q: %v", response.Content, err)
		return
	}

	payload, err := json.Marshal(classification)
	if err != nil {
		log.Printf("[enrichment] marshal mood record: %v", err)
		return
	}
	if err := s.kv.Set(ctx, store.MoodKey(date), string(payload)); err != nil {
		log.Printf("[enrichment] write mood record: %v", err)
		return
	}
	log.Printf("[enrichment] mood for %s: %s/%d", date, classification.Category, classification.Intensity)
}

func (s *Service) summarizeTopics(ctx context.Context, flat, date string, language settings.Language) {
	response, err := s.topics.Invoke(ctx, map[string]any{
		"transcript": flat,
		"language":   languageName(language),
	})
	if err != nil {
		log.Printf("[enrichment] topic summarization failed: %v", err)
		return
	}
	if response == nil {
		log.Printf("[enrichment] topic summarization returned no message")
		return
	}

	summary := strings.TrimSpace(response.Content)
	if summary == "" {
		log.Printf("[enrichment] discarding empty topic summary")
		return
	}

	// Stored verbatim; the 9-word cap is an instruction to the model, not a
	// constraint enforced here.
	if err := s.kv.Set(ctx, store.TopicKey(date), summary); err != nil {
		log.Printf("[enrichment] write topic record: %v", err)
		return
	}
	log.Printf("[enrichment] topics for %s recorded", date)
}

// Flatten renders the transcript for the enrichment prompts, one line per
// speaker in the form "speaker: text".
func Flatten(transcript journal.Transcript) string {
	var builder strings.Builder
	for _, turn := range transcript.Turns {
		if turn.Kind == journal.KindExchange {
			writeLine(&builder, "user", turn.User)
		}
		writeLine(&builder, "assistant", turn.Reply)
	}
	return builder.String()
}

func writeLine(builder *strings.Builder, speaker, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if builder.Len() > 0 {
		builder.WriteString("\n")
	}
	builder.WriteString(speaker)
	builder.WriteString(": ")
	builder.WriteString(text)
}

func languageName(language settings.Language) string {
	switch language {
	case settings.LanguageIndonesian:
		return "Indonesian"
	case settings.LanguageChinese:
		return "Chinese"
	default:
		return "English"
	}
}
