package phrase

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"insurance-voice-agent/internal/observability/metrics"
)

// Entry maps a spoken phrase to its prerecorded audio file.
type Entry struct {
	Key       string
	Text      string
	File      string
	Threshold float64
}

// CommonResponses are full responses the agent uses frequently. The
// greeting requires a near-exact match so paraphrases still go through
// the synthesizer.
var CommonResponses = []Entry{
	{
		Key:       "greeting",
		Text:      "Hi, this is PolicyPal AI from ICICI Lombard Insurance. How can I help you today?",
		File:      "greeting.wav",
		Threshold: 0.9,
	},
	{
		Key:       "no_information",
		Text:      "I'm sorry, but I currently don't have that information.",
		File:      "common/no_information.wav",
		Threshold: 0.8,
	},
	{
		Key:       "checking",
		Text:      "Let me check that for you.",
		File:      "common/checking.wav",
		Threshold: 0.85,
	},
	{
		Key:       "thank_you",
		Text:      "Thank you for calling.",
		File:      "common/thank_you.wav",
		Threshold: 0.85,
	},
	{
		Key:       "anything_else",
		Text:      "Is there anything else I can help you with?",
		File:      "common/anything_else.wav",
		Threshold: 0.8,
	},
	{
		Key:       "please_rephrase",
		Text:      "Could you please rephrase that?",
		File:      "common/please_rephrase.wav",
		Threshold: 0.85,
	},
	{
		Key:       "one_moment",
		Text:      "One moment please.",
		File:      "common/one_moment.wav",
		Threshold: 0.85,
	},
	{
		Key:       "transfer_agent",
		Text:      "Let me connect you to a human agent.",
		File:      "common/transfer_agent.wav",
		Threshold: 0.8,
	},
	{
		Key:       "goodbye",
		Text:      "Thank you for calling ICICI Lombard Insurance. Have a great day!",
		File:      "common/goodbye.wav",
		Threshold: 0.8,
	},
}

// Acknowledgments are very short interjections. Their thresholds are
// strict because short strings reach high ratios easily.
var Acknowledgments = []Entry{
	{Key: "understand", Text: "I understand.", File: "acknowledgments/understand.wav", Threshold: 0.9},
	{Key: "got_it", Text: "Got it.", File: "acknowledgments/got_it.wav", Threshold: 0.9},
	{Key: "one_moment_ack", Text: "One moment please.", File: "acknowledgments/one_moment.wav", Threshold: 0.9},
	{Key: "checking_ack", Text: "Let me check.", File: "acknowledgments/checking.wav", Threshold: 0.9},
}

// Library looks up prerecorded audio under a base directory.
type Library struct {
	dir     string
	metrics *metrics.Metrics
}

// NewLibrary creates a phrase library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir, metrics: metrics.DefaultMetrics}
}

// Lookup returns the path to prerecorded audio matching the text, or
// "" when no entry matches or the file is missing on disk. Common
// responses are checked before acknowledgments.
func (l *Library) Lookup(text string) string {
	for _, set := range [][]Entry{CommonResponses, Acknowledgments} {
		for _, e := range set {
			ratio := Ratio(text, e.Text)
			if ratio < e.Threshold {
				continue
			}
			path := filepath.Join(l.dir, filepath.FromSlash(e.File))
			if _, err := os.Stat(path); err != nil {
				continue
			}
			l.metrics.TTSPrerecorded.Inc()
			log.Debug().Str("key", e.Key).Float64("ratio", ratio).Msg("Using prerecorded audio")
			return path
		}
	}
	return ""
}

// GreetingPath returns the prerecorded greeting, or "" when absent.
func (l *Library) GreetingPath() string {
	path := filepath.Join(l.dir, CommonResponses[0].File)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// All returns every phrase that should have prerecorded audio.
func All() []Entry {
	out := make([]Entry, 0, len(CommonResponses)+len(Acknowledgments))
	out = append(out, CommonResponses...)
	out = append(out, Acknowledgments...)
	return out
}
