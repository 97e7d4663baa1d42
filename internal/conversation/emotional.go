package conversation

import "strings"

// EmotionalState is re-derived from each message. Label selection follows a
// strict priority: frustration/negative sentiment beats urgency, urgency
// beats positivity.
type EmotionalState struct {
	Sentiment   string  `json:"sentiment"` // positive, negative, neutral
	Urgency     string  `json:"urgency"`   // high, normal
	Frustration float64 `json:"frustration"`
	Label       string  `json:"label"` // excited, frustrated, curious, happy, neutral
}

var positiveWords = []string{
	"đẹp", "thích", "tuyệt", "xinh", "ưng", "cảm ơn", "ok", "được đấy",
	"love", "great", "nice", "perfect", "thanks",
}

var negativeWords = []string{
	"xấu", "chán", "tệ", "không thích", "không ưng", "đắt quá", "thất vọng",
	"bad", "ugly", "hate", "disappointed",
}

var urgencyWords = []string{
	"gấp", "nhanh", "ngay", "liền", "hôm nay", "urgent", "asap", "now",
}

var frustrationPhrases = []string{
	"không hiểu", "sao vậy", "bực", "lại bị", "vẫn chưa", "mãi không",
	"nói rồi mà", "why not", "still not", "again",
}

const frustrationPerHit = 0.34

// DeriveEmotionalState is a pure function of the current message; the prior
// state only carries the running frustration score forward when the new
// message adds to it.
func DeriveEmotionalState(message string, prior EmotionalState) EmotionalState {
	lower := strings.ToLower(message)

	state := EmotionalState{Sentiment: "neutral", Urgency: "normal"}

	positive := countHits(lower, positiveWords)
	negative := countHits(lower, negativeWords)
	if positive > negative {
		state.Sentiment = "positive"
	} else if negative > positive {
		state.Sentiment = "negative"
	}

	if countHits(lower, urgencyWords) > 0 || strings.Contains(message, "?") {
		state.Urgency = "high"
	}

	state.Frustration = float64(countHits(lower, frustrationPhrases)) * frustrationPerHit
	if state.Frustration > 0 {
		state.Frustration += prior.Frustration * 0.5
	}
	if state.Frustration > 1.0 {
		state.Frustration = 1.0
	}

	state.Label = deriveLabel(state)
	return state
}

func deriveLabel(s EmotionalState) string {
	switch {
	case s.Frustration >= 0.3 || s.Sentiment == "negative":
		return "frustrated"
	case s.Urgency == "high" && s.Sentiment == "positive":
		return "excited"
	case s.Urgency == "high":
		return "curious"
	case s.Sentiment == "positive":
		return "happy"
	default:
		return "neutral"
	}
}

func countHits(text string, words []string) int {
	hits := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			hits++
		}
	}
	return hits
}
