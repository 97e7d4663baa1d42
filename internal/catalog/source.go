// Package catalog owns the product inventory: an in-memory snapshot backed
// by SQLite, refreshed from a remote feed or an HTML import, and mirrored
// into the optional vector index and style graph.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clothify/backend/internal/storage/models"
	"github.com/clothify/backend/internal/storage/sqlite"
	"github.com/clothify/backend/pkg/logger"
)

// Indexer mirrors catalog products into a vector index.
type Indexer interface {
	IndexProducts(ctx context.Context, products []models.Product) error
}

// GraphSyncer mirrors catalog products into the style graph.
type GraphSyncer interface {
	SyncCatalog(ctx context.Context, products []models.Product) error
}

type Source struct {
	mu       sync.RWMutex
	products []models.Product
	byID     map[string]*models.Product

	db       *sqlite.Client
	indexer  Indexer
	graph    GraphSyncer
	endpoint string
	client   *http.Client
}

// NewSource builds a catalog over db. indexer and graph may be nil.
func NewSource(db *sqlite.Client, endpoint string, indexer Indexer, graph GraphSyncer) *Source {
	return &Source{
		byID:     make(map[string]*models.Product),
		db:       db,
		indexer:  indexer,
		graph:    graph,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Load restores the in-memory snapshot from SQLite.
func (s *Source) Load(ctx context.Context) error {
	products, err := s.db.ListProducts()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	s.replaceSnapshot(products)

	logger.Info("Catalog loaded", zap.Int("products", len(products)))
	return nil
}

// Refresh fetches the remote product feed and replaces the catalog with it.
func (s *Source) Refresh(ctx context.Context) error {
	if s.endpoint == "" {
		return fmt.Errorf("no catalog endpoint configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog feed returned status %d", resp.StatusCode)
	}

	var products []models.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return fmt.Errorf("failed to decode catalog feed: %w", err)
	}

	return s.ingest(ctx, products)
}

// ImportHTML scrapes product cards out of a category page. Cards are
// expected to carry .product-item with .product-name, .product-price and an
// optional data-id attribute.
func (s *Source) ImportHTML(ctx context.Context, r io.Reader, baseURL string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to parse document: %w", err)
	}

	var products []models.Product

	doc.Find(".product-item").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Find(".product-name").First().Text())
		if name == "" {
			return
		}

		id, ok := sel.Attr("data-id")
		if !ok || id == "" {
			id = uuid.New().String()
		}

		p := models.Product{
			ID:          id,
			Name:        name,
			Price:       parsePrice(sel.Find(".product-price").First().Text()),
			Description: strings.TrimSpace(sel.Find(".product-description").First().Text()),
		}

		if href, ok := sel.Find("a").First().Attr("href"); ok {
			p.URL = resolveURL(baseURL, href)
		}
		if src, ok := sel.Find("img").First().Attr("src"); ok {
			p.Images = []string{resolveURL(baseURL, src)}
		}

		products = append(products, p)
	})

	if len(products) == 0 {
		return 0, fmt.Errorf("no product cards found")
	}

	if err := s.ingest(ctx, products); err != nil {
		return 0, err
	}

	return len(products), nil
}

// Upsert stores a single product and updates the snapshot in place.
func (s *Source) Upsert(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := s.db.UpsertProduct(p); err != nil {
		return err
	}

	s.mu.Lock()
	if existing, ok := s.byID[p.ID]; ok {
		*existing = *p
	} else {
		s.products = append(s.products, *p)
		s.byID[p.ID] = &s.products[len(s.products)-1]
		s.rebuildIndexLocked()
	}
	s.mu.Unlock()

	s.mirror(ctx, []models.Product{*p})
	return nil
}

// Snapshot returns a copy of the catalog.
func (s *Source) Snapshot() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Lookup returns the product with the given id, or nil.
func (s *Source) Lookup(id string) *models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (s *Source) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

func (s *Source) ingest(ctx context.Context, products []models.Product) error {
	now := time.Now()
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = uuid.New().String()
		}
		if products[i].CreatedAt.IsZero() {
			products[i].CreatedAt = now
		}
		products[i].UpdatedAt = now

		if err := s.db.UpsertProduct(&products[i]); err != nil {
			return fmt.Errorf("failed to persist product %s: %w", products[i].ID, err)
		}
	}

	s.replaceSnapshot(products)
	s.mirror(ctx, products)

	logger.Info("Catalog ingested", zap.Int("products", len(products)))
	return nil
}

// mirror pushes products into the vector index and style graph. Both are
// best-effort: search falls back to a linear scan and complements fall back
// to tag matching.
func (s *Source) mirror(ctx context.Context, products []models.Product) {
	if s.indexer != nil {
		if err := s.indexer.IndexProducts(ctx, products); err != nil {
			logger.Warn("Vector indexing failed", zap.Error(err))
		}
	}
	if s.graph != nil {
		if err := s.graph.SyncCatalog(ctx, products); err != nil {
			logger.Warn("Style graph sync failed", zap.Error(err))
		}
	}
}

func (s *Source) replaceSnapshot(products []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = products
	s.rebuildIndexLocked()
}

func (s *Source) rebuildIndexLocked() {
	s.byID = make(map[string]*models.Product, len(s.products))
	for i := range s.products {
		s.byID[s.products[i].ID] = &s.products[i]
	}
}

// parsePrice reads "299.000đ" / "299,000 VND" style price strings.
func parsePrice(text string) int64 {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	price, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	return price
}

func resolveURL(base, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}
