// Package nlu routes a user message to a coarse intent with naive entity
// extraction. The rules run in a fixed priority order and the first match
// wins: a message carrying both a size mention and a price constraint
// classifies as a profile update, not a search.
package nlu

import (
	"regexp"
	"strconv"
	"strings"
)

type Intent string

const (
	IntentSearch        Intent = "search"
	IntentStyleAdvice   Intent = "style_advice"
	IntentCompare       Intent = "compare"
	IntentPolicy        Intent = "policy"
	IntentUpdateProfile Intent = "update_profile"
	IntentUnknown       Intent = "unknown"
)

// PriceBound marks which side of the range a parsed price constrains.
type PriceBound string

const (
	BoundMax  PriceBound = "max" // "dưới 300k"
	BoundMin  PriceBound = "min" // "trên 300k", "từ 300k"
	BoundNone PriceBound = ""
)

type Entities struct {
	Price      int64      `json:"price,omitempty"`
	PriceBound PriceBound `json:"price_bound,omitempty"`
	Size       string     `json:"size,omitempty"`
	Color      string     `json:"color,omitempty"`
}

type Result struct {
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Entities   Entities `json:"entities"`
}

var (
	sizePattern  = regexp.MustCompile(`(?i)(?:mặc\s+)?size\s+(xs|xxl|xl|s|m|l)\b`)
	pricePattern = regexp.MustCompile(`(?i)(dưới|trên|từ)\s*(\d+)\s*(k|nghìn|ngàn)?`)
)

var searchKeywords = []string{
	"tìm", "kiếm", "mua", "cần", "muốn", "giá", "bao nhiêu",
	"dưới", "trên", "shop", "find", "search", "buy", "looking for",
}

var styleAdviceKeywords = []string{
	"phối", "mặc gì", "tư vấn", "gợi ý", "hợp với", "style", "outfit", "mix đồ",
}

var compareKeywords = []string{
	"so sánh", "compare", "khác nhau", "hay là", "cái nào", "vs",
}

var policyKeywords = []string{
	"ship", "giao hàng", "vận chuyển", "đổi trả", "hoàn tiền",
	"bảo hành", "shipping", "return", "warranty", "refund",
}

var colorNames = []string{
	"đen", "trắng", "đỏ", "xanh", "vàng", "hồng", "tím", "xám", "nâu", "be",
	"black", "white", "red", "blue", "yellow", "pink", "purple", "gray", "brown", "beige",
}

// Colors returns every known color mentioned in the text, in vocabulary
// order. Intent does not matter; callers that track preferences use this
// directly.
func Colors(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, color := range colorNames {
		if strings.Contains(lower, color) {
			found = append(found, color)
		}
	}
	return found
}

// Classify is a pure function of the message text.
func Classify(text string) Result {
	lower := strings.ToLower(text)

	if m := sizePattern.FindStringSubmatch(lower); m != nil {
		return Result{
			Intent:     IntentUpdateProfile,
			Confidence: 0.95,
			Entities:   Entities{Size: strings.ToUpper(m[1])},
		}
	}

	if containsAny(lower, searchKeywords) {
		entities := Entities{}
		if price, bound, ok := ParsePrice(lower); ok {
			entities.Price = price
			entities.PriceBound = bound
		}
		if colors := Colors(lower); len(colors) > 0 {
			entities.Color = colors[0]
		}
		return Result{Intent: IntentSearch, Confidence: 0.9, Entities: entities}
	}

	if containsAny(lower, styleAdviceKeywords) {
		return Result{Intent: IntentStyleAdvice, Confidence: 0.9}
	}

	if containsAny(lower, compareKeywords) {
		return Result{Intent: IntentCompare, Confidence: 0.9}
	}

	if containsAny(lower, policyKeywords) {
		return Result{Intent: IntentPolicy, Confidence: 0.9}
	}

	return Result{Intent: IntentUnknown, Confidence: 0.4}
}

// ParsePrice reads "dưới 300k" style constraints. A "k"/"nghìn"/"ngàn"
// suffix multiplies by 1000.
func ParsePrice(text string) (int64, PriceBound, bool) {
	m := pricePattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, BoundNone, false
	}

	value, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, BoundNone, false
	}
	if m[3] != "" {
		value *= 1000
	}

	bound := BoundMin
	if m[1] == "dưới" {
		bound = BoundMax
	}

	return value, bound, true
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
