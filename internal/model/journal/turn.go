package journal

import "time"

// TurnKind distinguishes the day's opening prompt from a user/assistant exchange.
type TurnKind string

const (
	// KindPrompt is the system-authored greeting that opens a fresh day.
	KindPrompt TurnKind = "prompt"
	// KindExchange is one user entry paired with the assistant's reply.
	KindExchange TurnKind = "exchange"
)

// Turn is one unit of transcript content. A prompt turn carries only Reply;
// an exchange turn carries both User and Reply.
type Turn struct {
	ID        string    `json:"id"`
	Kind      TurnKind  `json:"kind"`
	User      string    `json:"user,omitempty"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transcript is the full ordered turn sequence for one calendar-day session.
// At most one prompt turn exists and it is always first.
type Transcript struct {
	Date  string `json:"date"`
	Turns []Turn `json:"turns"`
}

// Empty reports whether the transcript holds no turns at all.
func (t Transcript) Empty() bool {
	return len(t.Turns) == 0
}

// HasPrompt reports whether the transcript opens with a prompt turn.
func (t Transcript) HasPrompt() bool {
	return len(t.Turns) > 0 && t.Turns[0].Kind == KindPrompt
}

// Exchanges returns only the exchange turns, in order.
func (t Transcript) Exchanges() []Turn {
	out := make([]Turn, 0, len(t.Turns))
	for _, turn := range t.Turns {
		if turn.Kind == KindExchange {
			out = append(out, turn)
		}
	}
	return out
}

// DateKey renders the canonical calendar-day string used to key the session
// marker, mood records and topic records. Server-local date, locale independent.
func DateKey(at time.Time) string {
	return at.Format("2006-01-02")
}
