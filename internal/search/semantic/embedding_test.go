package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_Dimension(t *testing.T) {
	vec := Embed("áo khoác dù nam")
	assert.Len(t, vec, VectorDim)
}

func TestEmbed_Deterministic(t *testing.T) {
	a := Embed("áo thun cotton")
	b := Embed("áo thun cotton")
	assert.Equal(t, a, b)
}

func TestEmbed_Normalized(t *testing.T) {
	vec := Embed("quần jean ống rộng màu xanh")

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestEmbed_EmptyTextIsZeroVector(t *testing.T) {
	vec := Embed("")
	require.Len(t, vec, VectorDim)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		validate func(t *testing.T, sim float64)
	}{
		{
			name: "identical text",
			a:    "áo khoác dù",
			b:    "áo khoác dù",
			validate: func(t *testing.T, sim float64) {
				assert.InDelta(t, 1.0, sim, 1e-9)
			},
		},
		{
			name: "shared tokens score above disjoint",
			a:    "áo khoác nam",
			b:    "áo khoác nữ",
			validate: func(t *testing.T, sim float64) {
				disjoint := Cosine(Embed("áo khoác nam"), Embed("quần tây xám"))
				assert.Greater(t, sim, disjoint)
			},
		},
		{
			name: "empty side yields zero",
			a:    "áo khoác",
			b:    "",
			validate: func(t *testing.T, sim float64) {
				assert.Zero(t, sim)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, Cosine(Embed(tt.a), Embed(tt.b)))
		})
	}
}

func TestCosine_LengthMismatch(t *testing.T) {
	assert.Zero(t, Cosine([]float64{1, 0}, []float64{1, 0, 0}))
}
