package chat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clothify/backend/internal/catalog"
	"github.com/clothify/backend/internal/conversation"
	"github.com/clothify/backend/internal/personalization"
	"github.com/clothify/backend/internal/search/semantic"
	"github.com/clothify/backend/internal/storage/models"
	"github.com/clothify/backend/internal/storage/sqlite"
)

type fakeLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeLLM) GenerateReply(_ context.Context, _, _, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeLLM) StyleAdvice(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeLLM) CompareProducts(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type testEnv struct {
	engine  *Engine
	db      *sqlite.Client
	catalog *catalog.Source
}

func newTestEnv(t *testing.T, llm LLM) *testEnv {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())

	source := catalog.NewSource(db, "", nil, nil)
	seedCatalog(t, source)

	sessions := conversation.NewStore(nil, time.Hour)
	scorer := personalization.NewScorer(personalization.DefaultWeights(), source.Lookup)
	searcher := semantic.NewSearcher(nil)

	engine := NewEngine(db, source, sessions, scorer, searcher, llm, nil, nil, 6)

	return &testEnv{engine: engine, db: db, catalog: source}
}

func seedCatalog(t *testing.T, source *catalog.Source) {
	t.Helper()

	products := []*models.Product{
		{
			ID:        "p1",
			Name:      "Áo khoác dù nam",
			Price:     280000,
			Styles:    []string{"casual", "sport"},
			MatchWith: []string{"quần jean"},
			Variants:  []models.Variant{{SKU: "p1-den-m", Color: "đen", Size: "M"}},
			Sold:      200,
			Rating:    4.5,
		},
		{
			ID:       "p2",
			Name:     "Áo khoác bomber",
			Price:    550000,
			Styles:   []string{"street"},
			Variants: []models.Variant{{SKU: "p2-xanh-l", Color: "xanh", Size: "L"}},
		},
		{
			ID:     "p3",
			Name:   "Quần jean ống rộng",
			Price:  320000,
			Styles: []string{"street", "casual"},
		},
	}

	for _, p := range products {
		require.NoError(t, source.Upsert(context.Background(), p))
	}
}

func TestProcess_SearchIntent(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		UserID:    "u1",
		Message:   "tìm áo khoác dưới 300k",
	})
	require.NoError(t, err)

	assert.Equal(t, "search", resp.Intent)
	assert.Equal(t, 0.9, resp.Confidence)
	assert.NotEmpty(t, resp.Reply)

	require.NotEmpty(t, resp.Products)
	assert.Equal(t, "p1", resp.Products[0].Product.ID)

	for i := 1; i < len(resp.Products); i++ {
		assert.GreaterOrEqual(t, resp.Products[i-1].Score, resp.Products[i].Score)
	}
}

func TestProcess_SearchPersistsRecord(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		UserID:    "u1",
		Message:   "tìm áo khoác",
	})
	require.NoError(t, err)

	records, err := env.db.GetChatHistory("s1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, resp.ID, records[0].ID)
	assert.Equal(t, "search", records[0].Intent)
	assert.Equal(t, "tìm áo khoác", records[0].Message)
}

func TestProcess_SearchUsesLLMReply(t *testing.T) {
	llm := &fakeLLM{reply: "Mình gợi ý áo khoác dù nhé!"}
	env := newTestEnv(t, llm)

	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		Message:   "tìm áo khoác",
	})
	require.NoError(t, err)

	assert.Equal(t, "Mình gợi ý áo khoác dù nhé!", resp.Reply)
	assert.Equal(t, 1, llm.calls)
}

func TestProcess_LLMFailureFallsBackToTemplate(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rate limited")}
	env := newTestEnv(t, llm)

	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		Message:   "tìm áo khoác",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Reply)
	assert.Contains(t, resp.Reply, "Áo khoác")
}

func TestProcess_UpdateProfileIntent(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		UserID:    "u1",
		Message:   "mình mặc size M",
	})
	require.NoError(t, err)

	assert.Equal(t, "update_profile", resp.Intent)
	assert.Equal(t, 0.95, resp.Confidence)
	assert.Contains(t, resp.Reply, "size M")

	profile, err := env.db.GetProfile("u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "M", profile.PreferredSize)
}

func TestProcess_UpdateProfileWithoutUser(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		Message:   "mặc size L",
	})
	require.NoError(t, err)

	assert.Equal(t, "update_profile", resp.Intent)
	assert.NotEmpty(t, resp.Reply)

	profile, err := env.db.GetProfile("")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestProcess_SizeBeatsSearchInMixedMessage(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		UserID:    "u1",
		Message:   "tìm áo size M dưới 300k",
	})
	require.NoError(t, err)

	assert.Equal(t, "update_profile", resp.Intent)
	assert.Empty(t, resp.Products)
}

func TestProcess_StyleAdviceIntent(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		Message:   "phối đồ với áo khoác dù nam thế nào",
	})
	require.NoError(t, err)

	assert.Equal(t, "style_advice", resp.Intent)
	assert.Contains(t, resp.Reply, "Quần jean ống rộng")

	require.NotEmpty(t, resp.Products)
	assert.Equal(t, "p3", resp.Products[0].Product.ID)
}

func TestProcess_StyleAdviceWithoutSeed(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		Message:   "tư vấn phối đồ giúp mình",
	})
	require.NoError(t, err)

	assert.Equal(t, "style_advice", resp.Intent)
	assert.NotEmpty(t, resp.Reply)
	assert.Empty(t, resp.Products)
}

func TestProcess_CompareIntent(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		Message:   "so sánh áo khoác dù với áo khoác bomber",
	})
	require.NoError(t, err)

	assert.Equal(t, "compare", resp.Intent)
	require.GreaterOrEqual(t, len(resp.Products), 2)
	assert.Contains(t, resp.Reply, "So sánh")
}

func TestProcess_PolicyIntent(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{name: "shipping", message: "bao lâu thì giao hàng", expected: "giao hàng"},
		{name: "returns", message: "đổi trả thế nào", expected: "đổi trả"},
		{name: "warranty", message: "có bảo hành không", expected: "bảo hành"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.engine.Process(context.Background(), Request{
				SessionID: "s-" + tt.name,
				Message:   tt.message,
			})
			require.NoError(t, err)
			assert.Equal(t, "policy", resp.Intent)
			assert.Contains(t, resp.Reply, tt.expected)
		})
	}
}

func TestProcess_UnknownIntent(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		Message:   "hello bạn",
	})
	require.NoError(t, err)

	assert.Equal(t, "unknown", resp.Intent)
	assert.Equal(t, 0.4, resp.Confidence)
	assert.NotEmpty(t, resp.Reply)
}

func TestProcess_SessionMemoryNarrowsFollowUps(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		Message:   "tìm áo khoác dưới 300k",
	})
	require.NoError(t, err)

	// the price bound from the first turn still applies
	resp, err := env.engine.Process(context.Background(), Request{
		SessionID: "s1",
		Message:   "tìm áo khoác màu đen",
	})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Products)
	assert.Equal(t, "p1", resp.Products[0].Product.ID)
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price    int64
		expected string
	}{
		{price: 500, expected: "500"},
		{price: 99000, expected: "99.000"},
		{price: 299000, expected: "299.000"},
		{price: 1250000, expected: "1.250.000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatPrice(tt.price))
	}
}
