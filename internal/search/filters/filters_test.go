package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnion(t *testing.T) {
	tests := []struct {
		name     string
		dst      []string
		src      []string
		expected []string
	}{
		{name: "append new", dst: []string{"đen"}, src: []string{"trắng"}, expected: []string{"đen", "trắng"}},
		{name: "skip duplicates case-insensitively", dst: []string{"đen"}, src: []string{"ĐEN", "đen"}, expected: []string{"đen"}},
		{name: "skip blank values", dst: nil, src: []string{"", "  ", "xanh"}, expected: []string{"xanh"}},
		{name: "never removes", dst: []string{"đen", "trắng"}, src: nil, expected: []string{"đen", "trắng"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Union(tt.dst, tt.src...))
		})
	}
}

func TestPriceRange_Tighten(t *testing.T) {
	tests := []struct {
		name     string
		initial  PriceRange
		min, max int64
		expected PriceRange
	}{
		{name: "set bounds on empty range", initial: PriceRange{}, min: 100, max: 500, expected: PriceRange{Min: 100, Max: 500}},
		{name: "raise min only", initial: PriceRange{Min: 100, Max: 500}, min: 200, expected: PriceRange{Min: 200, Max: 500}},
		{name: "lower max only", initial: PriceRange{Min: 100, Max: 500}, max: 400, expected: PriceRange{Min: 100, Max: 400}},
		{name: "looser bounds are ignored", initial: PriceRange{Min: 200, Max: 400}, min: 100, max: 600, expected: PriceRange{Min: 200, Max: 400}},
		{name: "zero arguments leave range alone", initial: PriceRange{Min: 200, Max: 400}, expected: PriceRange{Min: 200, Max: 400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.initial
			r.Tighten(tt.min, tt.max)
			assert.Equal(t, tt.expected, r)
		})
	}
}

func TestFilterSet_IsEmpty(t *testing.T) {
	assert.True(t, (&FilterSet{}).IsEmpty())
	assert.False(t, (&FilterSet{Colors: []string{"đen"}}).IsEmpty())
	assert.False(t, (&FilterSet{Price: &PriceRange{Max: 300000}}).IsEmpty())
	assert.False(t, (&FilterSet{PopularOnly: true}).IsEmpty())
}

func TestExtract(t *testing.T) {
	p := testProduct()
	p.Description = "Chất liệu cotton, form rộng, hợp mùa hè"

	t.Run("variant colors win over text scan", func(t *testing.T) {
		assert.Equal(t, []string{"đen", "trắng"}, ExtractColors(p))
	})

	t.Run("materials from text", func(t *testing.T) {
		assert.Contains(t, ExtractMaterials(p), "cotton")
	})

	t.Run("seasons from text", func(t *testing.T) {
		assert.Contains(t, ExtractSeasons(p), "hè")
	})

	t.Run("fit from text", func(t *testing.T) {
		assert.Equal(t, FitLoose, ExtractFit(p))
	})
}
