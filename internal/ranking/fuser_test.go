package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clothify/backend/internal/search"
	"github.com/clothify/backend/internal/storage/models"
)

func result(id string, score float64, reasons ...string) search.Result {
	return search.Result{
		Product: models.Product{ID: id},
		Score:   score,
		Reasons: reasons,
	}
}

func TestFuse_DescendingOrder(t *testing.T) {
	fused := Fuse(
		[]search.Result{result("a", 0.3), result("b", 0.9), result("c", 0.6)},
	)

	require.Len(t, fused, 3)
	for i := 1; i < len(fused); i++ {
		assert.GreaterOrEqual(t, fused[i-1].Score, fused[i].Score)
	}
	assert.Equal(t, "b", fused[0].Product.ID)
}

func TestFuse_BoostsMultiSetAppearances(t *testing.T) {
	fused := Fuse(
		[]search.Result{result("a", 0.5), result("b", 0.5)},
		[]search.Result{result("a", 0.4)},
		[]search.Result{result("a", 0.2)},
	)

	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].Product.ID)
	assert.InDelta(t, 0.7, fused[0].Score, 1e-9)
	assert.InDelta(t, 0.5, fused[1].Score, 1e-9)
}

func TestFuse_BoostCapsAtOne(t *testing.T) {
	fused := Fuse(
		[]search.Result{result("a", 0.95)},
		[]search.Result{result("a", 0.95)},
		[]search.Result{result("a", 0.95)},
	)

	require.Len(t, fused, 1)
	assert.Equal(t, 1.0, fused[0].Score)
}

func TestFuse_TiesKeepFirstSeenOrder(t *testing.T) {
	fused := Fuse(
		[]search.Result{result("first", 0.5), result("second", 0.5)},
		[]search.Result{result("third", 0.5)},
	)

	require.Len(t, fused, 3)
	assert.Equal(t, "first", fused[0].Product.ID)
	assert.Equal(t, "second", fused[1].Product.ID)
	assert.Equal(t, "third", fused[2].Product.ID)
}

func TestFuse_ConcatenatesReasons(t *testing.T) {
	fused := Fuse(
		[]search.Result{result("a", 0.5, "khớp tên")},
		[]search.Result{result("a", 0.5, "hợp phong cách")},
	)

	require.Len(t, fused, 1)
	assert.Equal(t, []string{"khớp tên", "hợp phong cách"}, fused[0].Reasons)
}

func TestFuse_KeepsMaxComponentScores(t *testing.T) {
	a1 := result("a", 0.5)
	a1.Keyword = 0.9
	a2 := result("a", 0.6)
	a2.Semantic = 0.7
	a2.Keyword = 0.4

	fused := Fuse([]search.Result{a1}, []search.Result{a2})

	require.Len(t, fused, 1)
	assert.Equal(t, 0.9, fused[0].Keyword)
	assert.Equal(t, 0.7, fused[0].Semantic)
}

func TestFuse_EmptyAndNilSets(t *testing.T) {
	assert.Empty(t, Fuse())
	assert.Empty(t, Fuse(nil, []search.Result{}))

	fused := Fuse(nil, []search.Result{result("a", 0.5)}, nil)
	assert.Len(t, fused, 1)
}
