package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clothify/backend/internal/storage/models"
	"github.com/clothify/backend/internal/storage/sqlite"
)

func testDB(t *testing.T) *sqlite.Client {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.InitSchema())
	return db
}

func TestSource_UpsertAndLookup(t *testing.T) {
	source := NewSource(testDB(t), "", nil, nil)

	p := &models.Product{
		Name:  "Áo khoác dù nam",
		Price: 299000,
	}
	require.NoError(t, source.Upsert(context.Background(), p))
	require.NotEmpty(t, p.ID)

	got := source.Lookup(p.ID)
	require.NotNil(t, got)
	assert.Equal(t, "Áo khoác dù nam", got.Name)
	assert.Equal(t, int64(299000), got.Price)

	assert.Nil(t, source.Lookup("missing"))
	assert.Equal(t, 1, source.Size())
}

func TestSource_UpsertUpdatesInPlace(t *testing.T) {
	source := NewSource(testDB(t), "", nil, nil)

	p := &models.Product{ID: "p1", Name: "Áo thun", Price: 99000}
	require.NoError(t, source.Upsert(context.Background(), p))

	p.Price = 89000
	require.NoError(t, source.Upsert(context.Background(), p))

	assert.Equal(t, 1, source.Size())
	assert.Equal(t, int64(89000), source.Lookup("p1").Price)
}

func TestSource_LoadRestoresSnapshot(t *testing.T) {
	db := testDB(t)

	first := NewSource(db, "", nil, nil)
	require.NoError(t, first.Upsert(context.Background(), &models.Product{ID: "p1", Name: "Áo thun", Price: 99000}))

	second := NewSource(db, "", nil, nil)
	require.NoError(t, second.Load(context.Background()))

	assert.Equal(t, 1, second.Size())
	require.NotNil(t, second.Lookup("p1"))
}

func TestSource_SnapshotIsACopy(t *testing.T) {
	source := NewSource(testDB(t), "", nil, nil)
	require.NoError(t, source.Upsert(context.Background(), &models.Product{ID: "p1", Name: "Áo thun", Price: 99000}))

	snapshot := source.Snapshot()
	snapshot[0].Name = "đã sửa"

	assert.Equal(t, "Áo thun", source.Lookup("p1").Name)
}

func TestSource_ImportHTML(t *testing.T) {
	page := `
	<html><body>
	<div class="product-item" data-id="sku-1">
		<a href="/ao-khoac-du"><img src="/img/ao-khoac.jpg"></a>
		<span class="product-name">Áo khoác dù nam</span>
		<span class="product-price">299.000đ</span>
		<p class="product-description">Chống nước nhẹ</p>
	</div>
	<div class="product-item">
		<span class="product-name">Quần jean ống rộng</span>
		<span class="product-price">450,000 VND</span>
	</div>
	<div class="product-item">
		<span class="product-price">100.000đ</span>
	</div>
	</body></html>`

	source := NewSource(testDB(t), "", nil, nil)

	count, err := source.ImportHTML(context.Background(), strings.NewReader(page), "https://shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	p := source.Lookup("sku-1")
	require.NotNil(t, p)
	assert.Equal(t, "Áo khoác dù nam", p.Name)
	assert.Equal(t, int64(299000), p.Price)
	assert.Equal(t, "Chống nước nhẹ", p.Description)
	assert.Equal(t, "https://shop.example.com/ao-khoac-du", p.URL)
	require.Len(t, p.Images, 1)
	assert.Equal(t, "https://shop.example.com/img/ao-khoac.jpg", p.Images[0])
}

func TestSource_ImportHTMLNoCards(t *testing.T) {
	source := NewSource(testDB(t), "", nil, nil)

	_, err := source.ImportHTML(context.Background(), strings.NewReader("<html><body></body></html>"), "")
	assert.Error(t, err)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int64
	}{
		{name: "dot separators", text: "299.000đ", expected: 299000},
		{name: "comma separators with currency", text: "450,000 VND", expected: 450000},
		{name: "plain digits", text: "99000", expected: 99000},
		{name: "no digits", text: "liên hệ", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parsePrice(tt.text))
		})
	}
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://a.com/x", resolveURL("https://a.com", "/x"))
	assert.Equal(t, "https://b.com/y", resolveURL("https://a.com", "https://b.com/y"))
	assert.Equal(t, "", resolveURL("https://a.com", ""))
}
