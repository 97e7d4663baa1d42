package models

import "time"

// Product is a catalog item. Prices are in the smallest currency unit (VND).
// The scoring pipeline only reads products; mutation happens at ingestion.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        int64     `json:"price"`
	Description  string    `json:"description"`
	Images       []string  `json:"images"`
	URL          string    `json:"url"`
	Brand        string    `json:"brand"`
	Styles       []string  `json:"styles"`
	Occasions    []string  `json:"occasions"`
	MatchWith    []string  `json:"match_with"`
	WhyRecommend string    `json:"why_recommend"`
	Variants     []Variant `json:"variants"`
	Rating       float64   `json:"rating"`
	ReviewCount  int       `json:"review_count"`
	Sold         int       `json:"sold"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Variant struct {
	SKU   string `json:"sku"`
	Color string `json:"color"`
	Size  string `json:"size"`
	Price int64  `json:"price"`
}

// Colors lists the distinct variant colors of a product.
func (p *Product) Colors() []string {
	seen := make(map[string]bool)
	var colors []string
	for _, v := range p.Variants {
		if v.Color == "" || seen[v.Color] {
			continue
		}
		seen[v.Color] = true
		colors = append(colors, v.Color)
	}
	return colors
}

// Sizes lists the distinct variant sizes of a product.
func (p *Product) Sizes() []string {
	seen := make(map[string]bool)
	var sizes []string
	for _, v := range p.Variants {
		if v.Size == "" || seen[v.Size] {
			continue
		}
		seen[v.Size] = true
		sizes = append(sizes, v.Size)
	}
	return sizes
}

type StylePersonality string

const (
	StyleClassic    StylePersonality = "classic"
	StyleCasual     StylePersonality = "casual"
	StyleTrendy     StylePersonality = "trendy"
	StyleMinimalist StylePersonality = "minimalist"
	StyleBold       StylePersonality = "bold"
)

// UserProfile is the long-lived per-user record. Histories are append-only.
type UserProfile struct {
	ID               string           `json:"id"`
	StylePersonality StylePersonality `json:"style_personality"`
	PreferredSize    string           `json:"preferred_size"`
	ColorPreferences []string         `json:"color_preferences"`
	BrandPreferences []string         `json:"brand_preferences"`
	Purchases        []Purchase       `json:"purchases"`
	Searches         []SearchRecord   `json:"searches"`
	Ratings          []ProductRating  `json:"ratings"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type Purchase struct {
	ProductID string    `json:"product_id"`
	Price     int64     `json:"price"`
	Rating    float64   `json:"rating,omitempty"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SearchRecord struct {
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	ClickedIDs  []string  `json:"clicked_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProductRating struct {
	ProductID string    `json:"product_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// AveragePurchasePrice is 0 when the user has no purchase history.
func (p *UserProfile) AveragePurchasePrice() int64 {
	if len(p.Purchases) == 0 {
		return 0
	}
	var total int64
	for _, purchase := range p.Purchases {
		total += purchase.Price
	}
	return total / int64(len(p.Purchases))
}

// ChatRecord is one processed conversation turn.
type ChatRecord struct {
	ID         string
	SessionID  string
	UserID     string
	Message    string
	Intent     string
	Reply      string
	ProductIDs []string
	Confidence float64
	LatencyMS  int
	CreatedAt  time.Time
}

type Feedback struct {
	ID        int
	ChatID    string
	Helpful   bool
	Comment   string
	CreatedAt time.Time
}
