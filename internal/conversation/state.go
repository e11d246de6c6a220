// Package conversation implements the voice agent call workflow as a
// state graph.
package conversation

import "time"

// Intent classifies what the user wants from the current turn.
type Intent string

const (
	IntentNone            Intent = ""
	IntentEndCall         Intent = "end_call"
	IntentClaims          Intent = "claims"
	IntentCustomerService Intent = "customer_service"
	IntentGeneral         Intent = "general"
)

// TurnMetrics captures per-call provider usage.
type TurnMetrics struct {
	STTCalls        int
	TTSCalls        int
	TotalSTTLatency time.Duration
	TotalTTSLatency time.Duration
	FallbackCount   int

	// Errors counts transcription and synthesis failures over the call.
	Errors int
}

// State carries a call through the workflow graph. One State exists
// per session; callers must not share it across goroutines without
// external locking.
type State struct {
	SessionID string
	StartedAt time.Time

	// Transcript holds "User: ..." and "Agent: ..." lines in order.
	Transcript []string

	Intent         Intent
	LastUserText   string
	LastSTTService string
	LastTTSService string
	RetrievedDocs  []string

	CurrentTurn int
	MaxTurns    int
	ShouldEnd   bool
	Ended       bool

	// PendingAudio is the next user utterance as WAV bytes. The listen
	// node consumes it, or pauses the graph when it is empty.
	PendingAudio []byte

	// AgentText and AgentAudio are the latest response, for the caller
	// to return after a run pauses or ends.
	AgentText  string
	AgentAudio []byte

	// NextNode is where a paused run resumes. Empty means the graph
	// starts from the beginning.
	NextNode string

	Metrics TurnMetrics
}

// NewState creates the initial state for a call.
func NewState(sessionID string, maxTurns int) *State {
	if maxTurns <= 0 {
		maxTurns = 5
	}
	return &State{
		SessionID: sessionID,
		StartedAt: time.Now(),
		MaxTurns:  maxTurns,
	}
}

// AppendUser adds a user line to the transcript.
func (s *State) AppendUser(text string) {
	s.Transcript = append(s.Transcript, "User: "+text)
}

// AppendAgent adds an agent line to the transcript.
func (s *State) AppendAgent(text string) {
	s.Transcript = append(s.Transcript, "Agent: "+text)
}
