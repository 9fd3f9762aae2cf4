package genservice

// Message is one prior conversation turn sent to the service for
// context.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Transcript is the append-only conversation context accumulated
// across service calls within a single run. It is owned by the run
// that created it, grows monotonically for the run's lifetime, and is
// never persisted. It is not safe for concurrent use; the pipeline is
// strictly sequential.
type Transcript struct {
	turns []Message
}

// NewTranscript creates an empty run-scoped transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Record appends one request/response exchange.
func (t *Transcript) Record(userPrompt, response string) {
	t.turns = append(t.turns,
		Message{Role: "user", Content: userPrompt},
		Message{Role: "assistant", Content: response},
	)
}

// Messages returns a copy of the accumulated turns.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of recorded turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}
