package filters

import (
	"strings"

	"github.com/clothify/backend/internal/storage/models"
)

// Fixed vocabulary lists for property extraction. Extraction scans the
// product's name and description; a missing property yields an empty list,
// never an error.

var colorVocab = []string{
	"đen", "trắng", "đỏ", "xanh", "vàng", "hồng", "tím", "xám", "nâu", "be",
	"black", "white", "red", "blue", "yellow", "pink", "purple", "gray", "brown", "beige",
}

var materialVocab = []string{
	"cotton", "kaki", "jean", "denim", "len", "lụa", "da", "nỉ",
	"polyester", "linen", "thun", "wool", "silk", "leather",
}

var seasonVocab = []string{
	"xuân", "hè", "thu", "đông", "spring", "summer", "autumn", "fall", "winter",
}

// ExtractColors returns variant colors when present, otherwise colors
// mentioned in the product text.
func ExtractColors(p *models.Product) []string {
	if colors := p.Colors(); len(colors) > 0 {
		return colors
	}
	return scanVocab(p, colorVocab)
}

func ExtractMaterials(p *models.Product) []string {
	return scanVocab(p, materialVocab)
}

func ExtractSeasons(p *models.Product) []string {
	return scanVocab(p, seasonVocab)
}

// Fit classifies a product's cut as slim, loose, or regular from its text.
type Fit string

const (
	FitSlim    Fit = "slim"
	FitRegular Fit = "regular"
	FitLoose   Fit = "loose"
)

func ExtractFit(p *models.Product) Fit {
	text := productText(p)
	switch {
	case strings.Contains(text, "slim") || strings.Contains(text, "ôm") || strings.Contains(text, "body"):
		return FitSlim
	case strings.Contains(text, "oversize") || strings.Contains(text, "rộng") || strings.Contains(text, "loose") || strings.Contains(text, "form rộng"):
		return FitLoose
	default:
		return FitRegular
	}
}

func scanVocab(p *models.Product, vocab []string) []string {
	text := productText(p)
	var found []string
	for _, term := range vocab {
		if strings.Contains(text, term) {
			found = append(found, term)
		}
	}
	return found
}

func productText(p *models.Product) string {
	return strings.ToLower(p.Name + " " + p.Description)
}
