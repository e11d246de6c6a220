package conversation

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"insurance-voice-agent/internal/models"
	"insurance-voice-agent/internal/observability/metrics"
	"insurance-voice-agent/internal/rag"
	"insurance-voice-agent/internal/service/stt"
	"insurance-voice-agent/internal/service/tts"
)

// Canned agent lines.
const (
	Greeting = "Hi, this is PolicyPal AI from ICICI Lombard Insurance. How can I help you today?"
	Farewell = "Thank you for calling ICICI Lombard Insurance. Have a great day!"

	// NoInfoResponse is used when retrieval finds nothing to ground an
	// answer on.
	NoInfoResponse = "I apologize, I couldn't find relevant information about that. Could you please rephrase your question?"

	// TranscriptionFailedLine marks an unintelligible user turn in the
	// transcript.
	TranscriptionFailedLine = "[transcription failed]"
)

// Keyword sets for intent detection. Checked against the lowercased
// user text; end-call keywords win over everything else.
var (
	endCallKeywords         = []string{"goodbye", "bye", "thank you bye", "that's all", "nothing else"}
	claimsKeywords          = []string{"claim", "accident", "damage", "incident", "file", "report", "theft", "stolen"}
	customerServiceKeywords = []string{"policy", "quote", "coverage", "complaint", "help", "service", "question", "premium", "renew"}
)

// Retriever finds document chunks relevant to a query.
type Retriever interface {
	Search(ctx context.Context, query string) ([]rag.Hit, error)
}

// Generator produces an answer from a query and retrieved docs.
type Generator interface {
	GenerateAnswer(ctx context.Context, query string, docs []string) (string, error)
}

// PhraseLibrary resolves canned responses to prerecorded audio paths.
type PhraseLibrary interface {
	Lookup(text string) string
}

// TurnPublisher emits conversation events.
type TurnPublisher interface {
	PublishUserTurn(ctx context.Context, key string, event any) error
	PublishAgentTurn(ctx context.Context, key string, event any) error
	PublishSessionEvent(ctx context.Context, key string, event any) error
}

// Workflow holds the dependencies the node functions need.
type Workflow struct {
	retriever   Retriever
	generator   Generator
	transcriber stt.Transcriber
	synthesizer tts.Synthesizer
	phrases     PhraseLibrary
	publisher   TurnPublisher
	metrics     *metrics.Metrics
}

// NewWorkflow wires a conversation workflow. The phrase library and
// publisher are optional.
func NewWorkflow(
	retriever Retriever,
	generator Generator,
	transcriber stt.Transcriber,
	synthesizer tts.Synthesizer,
	phrases PhraseLibrary,
	publisher TurnPublisher,
) *Workflow {
	return &Workflow{
		retriever:   retriever,
		generator:   generator,
		transcriber: transcriber,
		synthesizer: synthesizer,
		phrases:     phrases,
		publisher:   publisher,
		metrics:     metrics.DefaultMetrics,
	}
}

// BuildGraph compiles the call workflow:
//
//	initialize -> greet -> listen -> detect_intent -> retrieve
//	  -> generate -> check_continue -> (listen | end_call)
//
// The listen node pauses the run until audio arrives, so one Run call
// advances the call by exactly one turn.
func (w *Workflow) BuildGraph() (*Graph, error) {
	b := NewGraphBuilder()
	b.AddNode("initialize_session", w.initializeSession)
	b.AddNode("greet_user", w.greetUser)
	b.AddNode("listen_to_user", w.listenToUser)
	b.AddNode("detect_intent", w.detectIntent)
	b.AddNode("retrieve_information", w.retrieveInformation)
	b.AddNode("generate_response", w.generateResponse)
	b.AddNode("check_continue", w.checkContinue)
	b.AddNode("end_call", w.endCall)

	b.AddEdge(Start, "initialize_session")
	b.AddEdge("initialize_session", "greet_user")
	b.AddEdge("greet_user", "listen_to_user")
	b.AddEdge("listen_to_user", "detect_intent")
	b.AddEdge("detect_intent", "retrieve_information")
	b.AddEdge("retrieve_information", "generate_response")
	b.AddEdge("generate_response", "check_continue")
	b.AddConditionalEdges("check_continue", shouldContinue, map[string]string{
		"continue": "listen_to_user",
		"end":      "end_call",
	})
	b.AddEdge("end_call", End)

	return b.Compile()
}

func shouldContinue(st *State) string {
	if st.ShouldEnd {
		return "end"
	}
	return "continue"
}

// initializeSession stamps the call start. Session lifecycle gauges
// live in the session manager, which sees implicit sessions too.
func (w *Workflow) initializeSession(_ context.Context, st *State) error {
	st.StartedAt = time.Now()

	log.Info().Str("sessionId", st.SessionID).Int("maxTurns", st.MaxTurns).Msg("Call session initialized")
	return nil
}

func (w *Workflow) greetUser(ctx context.Context, st *State) error {
	st.AppendAgent(Greeting)
	st.AgentText = Greeting
	st.AgentAudio = w.speak(ctx, st, Greeting)

	w.publishAgentTurn(ctx, st, Greeting)
	if w.publisher != nil {
		_ = w.publisher.PublishSessionEvent(ctx, st.SessionID, models.SessionEvent{
			EventType: "session_started",
			SessionID: st.SessionID,
			Timestamp: time.Now().UnixMilli(),
		})
	}
	return nil
}

func (w *Workflow) listenToUser(ctx context.Context, st *State) error {
	if len(st.PendingAudio) == 0 {
		return ErrAwaitInput
	}
	audio := st.PendingAudio
	st.PendingAudio = nil

	st.CurrentTurn++
	w.metrics.TurnsTotal.Inc()

	res, err := w.transcriber.Transcribe(ctx, audio)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", st.SessionID).Int("turn", st.CurrentTurn).Msg("Transcription failed")
		st.AppendUser(TranscriptionFailedLine)
		st.LastUserText = ""
		st.LastSTTService = ""
		st.Metrics.Errors++
		return nil
	}

	st.LastUserText = res.Text
	st.LastSTTService = res.Service
	st.AppendUser(res.Text)
	st.Metrics.STTCalls++
	st.Metrics.TotalSTTLatency += res.Latency
	if res.FallbackTriggered {
		st.Metrics.FallbackCount++
	}

	log.Info().
		Str("sessionId", st.SessionID).
		Int("turn", st.CurrentTurn).
		Str("service", res.Service).
		Str("text", res.Text).
		Msg("User turn transcribed")
	return nil
}

func (w *Workflow) detectIntent(ctx context.Context, st *State) error {
	st.Intent = DetectIntent(st.LastUserText)
	if st.Intent == IntentEndCall {
		st.ShouldEnd = true
	}

	log.Debug().Str("sessionId", st.SessionID).Str("intent", string(st.Intent)).Msg("Intent detected")

	if w.publisher != nil && st.LastUserText != "" {
		_ = w.publisher.PublishUserTurn(ctx, st.SessionID, models.UserTurn{
			EventType:  "user_turn",
			SessionID:  st.SessionID,
			Turn:       st.CurrentTurn,
			Text:       st.LastUserText,
			Intent:     string(st.Intent),
			STTService: st.LastSTTService,
			Timestamp:  time.Now().UnixMilli(),
		})
	}
	return nil
}

// DetectIntent classifies an utterance with keyword matching.
func DetectIntent(text string) Intent {
	lower := strings.ToLower(text)
	if containsAny(lower, endCallKeywords) {
		return IntentEndCall
	}
	if containsAny(lower, claimsKeywords) {
		return IntentClaims
	}
	if containsAny(lower, customerServiceKeywords) {
		return IntentCustomerService
	}
	return IntentGeneral
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func (w *Workflow) retrieveInformation(ctx context.Context, st *State) error {
	st.RetrievedDocs = nil
	if st.LastUserText == "" || st.ShouldEnd {
		return nil
	}

	hits, err := w.retriever.Search(ctx, st.LastUserText)
	if err != nil {
		// Retrieval errors degrade to a no-context answer instead of
		// dropping the call.
		log.Error().Err(err).Str("sessionId", st.SessionID).Msg("Retrieval failed")
		return nil
	}
	st.RetrievedDocs = rag.Documents(hits)
	return nil
}

func (w *Workflow) generateResponse(ctx context.Context, st *State) error {
	if st.ShouldEnd {
		// The end_call node speaks the farewell.
		return nil
	}

	var response string
	if len(st.RetrievedDocs) > 0 {
		answer, err := w.generator.GenerateAnswer(ctx, st.LastUserText, st.RetrievedDocs)
		if err != nil {
			log.Error().Err(err).Str("sessionId", st.SessionID).Msg("Generation failed, using apology")
		}
		response = answer
	} else {
		response = NoInfoResponse
	}

	st.AppendAgent(response)
	st.AgentText = response
	st.AgentAudio = w.speak(ctx, st, response)

	w.publishAgentTurn(ctx, st, response)
	return nil
}

func (w *Workflow) checkContinue(_ context.Context, st *State) error {
	if st.CurrentTurn >= st.MaxTurns {
		log.Info().Str("sessionId", st.SessionID).Int("maxTurns", st.MaxTurns).Msg("Maximum turns reached")
		st.ShouldEnd = true
	}
	return nil
}

func (w *Workflow) endCall(ctx context.Context, st *State) error {
	st.AppendAgent(Farewell)
	st.AgentText = Farewell
	st.AgentAudio = w.speak(ctx, st, Farewell)

	w.publishAgentTurn(ctx, st, Farewell)

	reason := "max_turns"
	if st.Intent == IntentEndCall {
		reason = "user_request"
	}
	w.metrics.SessionsEnded.WithLabelValues(reason).Inc()

	if w.publisher != nil {
		_ = w.publisher.PublishSessionEvent(ctx, st.SessionID, models.SessionEvent{
			EventType: "session_ended",
			SessionID: st.SessionID,
			Turns:     st.CurrentTurn,
			Intent:    string(st.Intent),
			Timestamp: time.Now().UnixMilli(),
		})
	}

	log.Info().
		Str("sessionId", st.SessionID).
		Int("turns", st.CurrentTurn).
		Str("intent", string(st.Intent)).
		Str("reason", reason).
		Msg("Call ended")
	return nil
}

// speak renders text to audio, preferring prerecorded phrases. A TTS
// failure yields nil audio so the caller can fall back to text-only.
func (w *Workflow) speak(ctx context.Context, st *State, text string) []byte {
	if w.phrases != nil {
		if path := w.phrases.Lookup(text); path != "" {
			if data, err := os.ReadFile(path); err == nil {
				st.LastTTSService = "prerecorded"
				return data
			}
		}
	}

	res, err := w.synthesizer.Synthesize(ctx, text)
	if err != nil {
		log.Error().Err(err).Str("sessionId", st.SessionID).Msg("Synthesis failed, text-only response")
		st.LastTTSService = ""
		st.Metrics.Errors++
		return nil
	}
	st.LastTTSService = res.Service

	st.Metrics.TTSCalls++
	st.Metrics.TotalTTSLatency += res.Latency
	if res.FallbackTriggered {
		st.Metrics.FallbackCount++
	}
	return res.Audio
}

func (w *Workflow) publishAgentTurn(ctx context.Context, st *State, text string) {
	if w.publisher == nil {
		return
	}
	_ = w.publisher.PublishAgentTurn(ctx, st.SessionID, models.AgentTurn{
		EventType:    "agent_turn",
		SessionID:    st.SessionID,
		Turn:         st.CurrentTurn,
		Text:         text,
		SourcesFound: len(st.RetrievedDocs),
		TTSService:   st.LastTTSService,
		Timestamp:    time.Now().UnixMilli(),
	})
}
