// Package conversation tracks per-session memory: accumulated preferences,
// emotional state, and recent searches. Preference accumulation is monotonic
// within a session; nothing is ever removed, price bounds only tighten.
package conversation

import (
	"strings"
	"time"

	"github.com/clothify/backend/internal/nlu"
	"github.com/clothify/backend/internal/search/filters"
)

const (
	maxFlowHistory    = 10
	maxRecentSearches = 20
)

type Preferences struct {
	Colors    []string            `json:"colors,omitempty"`
	Sizes     []string            `json:"sizes,omitempty"`
	Styles    []string            `json:"styles,omitempty"`
	Occasions []string            `json:"occasions,omitempty"`
	Price     *filters.PriceRange `json:"price,omitempty"`
}

type SearchEntry struct {
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	At          time.Time `json:"at"`
}

// Context is the mutable session state. It is owned by a single session and
// mutated only by that session's requests.
type Context struct {
	SessionID      string         `json:"session_id"`
	UserID         string         `json:"user_id"`
	StartedAt      time.Time      `json:"started_at"`
	MessageCount   int            `json:"message_count"`
	Flow           []string       `json:"flow"`
	RecentSearches []SearchEntry  `json:"recent_searches"`
	Preferences    Preferences    `json:"preferences"`
	Emotional      EmotionalState `json:"emotional"`
}

func NewContext(sessionID, userID string) *Context {
	return &Context{
		SessionID: sessionID,
		UserID:    userID,
		StartedAt: time.Now(),
	}
}

var styleVocab = []string{
	"casual", "formal", "sport", "street", "vintage", "basic", "elegant", "minimalist",
}

var occasionVocab = []string{
	"đi làm", "đi chơi", "đi tiệc", "đám cưới", "hẹn hò", "du lịch", "work", "party", "date",
}

// Observe folds one user message into the session state: flow history,
// emotional state, and any recognizable preference mentions.
func (c *Context) Observe(message string) {
	c.MessageCount++

	c.Flow = append(c.Flow, message)
	if len(c.Flow) > maxFlowHistory {
		c.Flow = c.Flow[len(c.Flow)-maxFlowHistory:]
	}

	c.Emotional = DeriveEmotionalState(message, c.Emotional)

	c.mergeMentions(message)
}

func (c *Context) mergeMentions(message string) {
	lower := strings.ToLower(message)

	result := nlu.Classify(message)
	if result.Entities.Size != "" {
		c.Preferences.Sizes = filters.Union(c.Preferences.Sizes, result.Entities.Size)
	}

	// Colors are scanned from the raw text so a mention in a size update or
	// an off-intent message still sticks.
	for _, color := range nlu.Colors(lower) {
		c.Preferences.Colors = filters.Union(c.Preferences.Colors, color)
	}

	for _, style := range styleVocab {
		if strings.Contains(lower, style) {
			c.Preferences.Styles = filters.Union(c.Preferences.Styles, style)
		}
	}
	for _, occasion := range occasionVocab {
		if strings.Contains(lower, occasion) {
			c.Preferences.Occasions = filters.Union(c.Preferences.Occasions, occasion)
		}
	}

	if price, bound, ok := nlu.ParsePrice(lower); ok {
		if c.Preferences.Price == nil {
			c.Preferences.Price = &filters.PriceRange{}
		}
		if bound == nlu.BoundMax {
			c.Preferences.Price.Tighten(0, price)
		} else {
			c.Preferences.Price.Tighten(price, 0)
		}
	}
}

// RecordSearch appends to the rolling search list, evicting the oldest past
// the cap.
func (c *Context) RecordSearch(query string, resultCount int) {
	c.RecentSearches = append(c.RecentSearches, SearchEntry{
		Query:       query,
		ResultCount: resultCount,
		At:          time.Now(),
	})
	if len(c.RecentSearches) > maxRecentSearches {
		c.RecentSearches = c.RecentSearches[len(c.RecentSearches)-maxRecentSearches:]
	}
}
