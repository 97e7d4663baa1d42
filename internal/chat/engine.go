// Package chat runs a conversation turn end to end: classify the message,
// fan out to the scoring stages, fuse the rankings, and phrase a reply.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clothify/backend/internal/catalog"
	"github.com/clothify/backend/internal/conversation"
	"github.com/clothify/backend/internal/metrics"
	"github.com/clothify/backend/internal/nlu"
	"github.com/clothify/backend/internal/personalization"
	"github.com/clothify/backend/internal/ranking"
	"github.com/clothify/backend/internal/search"
	"github.com/clothify/backend/internal/search/filters"
	"github.com/clothify/backend/internal/search/semantic"
	"github.com/clothify/backend/internal/storage/models"
	"github.com/clothify/backend/internal/storage/sqlite"
	"github.com/clothify/backend/internal/stylegraph"
	"github.com/clothify/backend/pkg/logger"
	"github.com/clothify/backend/pkg/utils"
)

const (
	stageLimit    = 30
	replyCacheTTL = 10 * time.Minute
)

// LLM phrases replies. A nil LLM degrades to templated replies.
type LLM interface {
	GenerateReply(ctx context.Context, message, productContext, emotionalLabel string) (string, error)
	StyleAdvice(ctx context.Context, message, complementContext string) (string, error)
	CompareProducts(ctx context.Context, message, productContext string) (string, error)
}

// ComplementFinder resolves "wear it with" products for a seed product.
type ComplementFinder interface {
	FindComplements(ctx context.Context, productID string) ([]stylegraph.Complement, error)
}

// ReplyCache short-circuits repeated identical turns.
type ReplyCache interface {
	GetReply(ctx context.Context, messageHash string) (string, bool, error)
	SetReply(ctx context.Context, messageHash, reply string, ttl time.Duration) error
}

type Engine struct {
	db       *sqlite.Client
	catalog  *catalog.Source
	sessions *conversation.Store
	scorer   *personalization.Scorer
	semantic *semantic.Searcher

	llm   LLM
	graph ComplementFinder
	cache ReplyCache

	topN int
}

type Request struct {
	SessionID string
	UserID    string
	Message   string
}

type RankedProduct struct {
	Product models.Product `json:"product"`
	Score   float64        `json:"score"`
	Reasons []string       `json:"reasons,omitempty"`
}

type Response struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	Intent     string          `json:"intent"`
	Confidence float64         `json:"confidence"`
	Reply      string          `json:"reply"`
	Products   []RankedProduct `json:"products,omitempty"`
	Emotional  string          `json:"emotional"`
	Cached     bool            `json:"cached"`
	LatencyMS  int             `json:"latency_ms"`
}

// NewEngine wires the pipeline. llm, graph and cache may be nil; the engine
// degrades to templated replies, tag-based complements and no caching.
func NewEngine(
	db *sqlite.Client,
	cat *catalog.Source,
	sessions *conversation.Store,
	scorer *personalization.Scorer,
	searcher *semantic.Searcher,
	llmClient LLM,
	graph ComplementFinder,
	cache ReplyCache,
	topN int,
) *Engine {
	if topN <= 0 {
		topN = 6
	}
	return &Engine{
		db:       db,
		catalog:  cat,
		sessions: sessions,
		scorer:   scorer,
		semantic: searcher,
		llm:      llmClient,
		graph:    graph,
		cache:    cache,
		topN:     topN,
	}
}

// Process handles one conversation turn.
func (e *Engine) Process(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()
	chatID := uuid.New().String()

	logger.Info("Processing chat turn",
		zap.String("chat_id", chatID),
		zap.String("session_id", req.SessionID),
	)

	sessionCtx := e.sessions.Get(ctx, req.SessionID, req.UserID)
	sessionCtx.Observe(req.Message)

	nluResult := nlu.Classify(req.Message)
	metrics.IntentConfidence.WithLabelValues(string(nluResult.Intent)).Observe(nluResult.Confidence)

	profile, err := e.db.GetProfile(req.UserID)
	if err != nil {
		logger.Warn("Profile lookup failed", zap.Error(err))
	}

	resp := &Response{
		ID:         chatID,
		SessionID:  req.SessionID,
		Intent:     string(nluResult.Intent),
		Confidence: nluResult.Confidence,
		Emotional:  sessionCtx.Emotional.Label,
	}

	switch nluResult.Intent {
	case nlu.IntentSearch:
		err = e.handleSearch(ctx, req, nluResult, profile, sessionCtx, resp)
	case nlu.IntentUpdateProfile:
		err = e.handleProfileUpdate(ctx, req, nluResult, profile, resp)
	case nlu.IntentStyleAdvice:
		err = e.handleStyleAdvice(ctx, req, sessionCtx, resp)
	case nlu.IntentCompare:
		err = e.handleCompare(ctx, req, resp)
	case nlu.IntentPolicy:
		err = e.handlePolicy(ctx, req, resp)
	default:
		resp.Reply = "Mình chưa hiểu ý bạn lắm. Bạn muốn tìm sản phẩm, tư vấn phối đồ hay hỏi về giao hàng?"
	}

	status := "ok"
	if err != nil {
		status = "error"
		logger.Error("Chat turn failed",
			zap.String("chat_id", chatID),
			zap.String("intent", resp.Intent),
			zap.Error(err),
		)
	}
	metrics.ChatTotal.WithLabelValues(resp.Intent, status).Inc()
	metrics.ChatDuration.WithLabelValues(resp.Intent).Observe(time.Since(startTime).Seconds())
	if err != nil {
		return nil, err
	}

	resp.LatencyMS = int(time.Since(startTime).Milliseconds())

	e.sessions.Save(ctx, sessionCtx)

	record := &models.ChatRecord{
		ID:         chatID,
		SessionID:  req.SessionID,
		UserID:     req.UserID,
		Message:    req.Message,
		Intent:     resp.Intent,
		Reply:      resp.Reply,
		ProductIDs: productIDs(resp.Products),
		Confidence: resp.Confidence,
		LatencyMS:  resp.LatencyMS,
		CreatedAt:  time.Now(),
	}
	if err := e.db.InsertChatRecord(record); err != nil {
		logger.Warn("Failed to persist chat record", zap.Error(err))
	}

	logger.Info("Chat turn processed",
		zap.String("chat_id", chatID),
		zap.String("intent", resp.Intent),
		zap.Int("products", len(resp.Products)),
		zap.Int("latency_ms", resp.LatencyMS),
	)

	return resp, nil
}

func (e *Engine) handleSearch(
	ctx context.Context,
	req Request,
	nluResult nlu.Result,
	profile *models.UserProfile,
	sessionCtx *conversation.Context,
	resp *Response,
) error {
	products := e.catalog.Snapshot()
	if len(products) == 0 {
		resp.Reply = "Xin lỗi, hiện shop chưa có sản phẩm nào. Bạn quay lại sau nhé!"
		return nil
	}

	fs := buildFilterSet(nluResult, profile, sessionCtx)

	lexical := search.Lexical(req.Message, products, stageLimit)
	semanticResults := e.semantic.Search(ctx, req.Message, products, stageLimit)
	filterResults := e.applyFilters(products, fs)
	personalized := e.personalize(products, profile, sessionCtx)

	metrics.SearchResultsCount.WithLabelValues("lexical").Observe(float64(len(lexical)))
	metrics.SearchResultsCount.WithLabelValues("semantic").Observe(float64(len(semanticResults)))
	metrics.SearchResultsCount.WithLabelValues("filter").Observe(float64(len(filterResults)))
	metrics.SearchResultsCount.WithLabelValues("personalization").Observe(float64(len(personalized)))

	fused := ranking.Fuse(lexical, semanticResults, filterResults, personalized)
	if len(fused) > e.topN {
		fused = fused[:e.topN]
	}
	if len(fused) > 0 {
		metrics.FusedScore.Observe(fused[0].Score)
	}

	resp.Products = toRanked(fused)

	sessionCtx.RecordSearch(req.Message, len(fused))
	if req.UserID != "" {
		record := models.SearchRecord{
			Query:       req.Message,
			ResultCount: len(fused),
			CreatedAt:   time.Now(),
		}
		if err := e.db.AddSearchRecord(req.UserID, record); err != nil {
			logger.Warn("Failed to persist search record", zap.Error(err))
		}
	}

	resp.Reply = e.phraseSearchReply(ctx, req, fused, sessionCtx.Emotional.Label)
	return nil
}

func (e *Engine) phraseSearchReply(ctx context.Context, req Request, fused []search.Result, emotionalLabel string) string {
	cacheKey := utils.HashString(req.UserID + "|" + strings.ToLower(strings.TrimSpace(req.Message)))
	if e.cache != nil {
		if reply, ok, err := e.cache.GetReply(ctx, cacheKey); err == nil && ok {
			metrics.CacheHits.WithLabelValues("reply").Inc()
			return reply
		}
		metrics.CacheMisses.WithLabelValues("reply").Inc()
	}

	reply := templatedSearchReply(fused)
	if e.llm != nil {
		generated, err := e.llm.GenerateReply(ctx, req.Message, formatProductContext(fused), emotionalLabel)
		if err != nil {
			logger.Warn("Reply generation failed, using template", zap.Error(err))
		} else {
			reply = generated
		}
	}

	if e.cache != nil {
		if err := e.cache.SetReply(ctx, cacheKey, reply, replyCacheTTL); err != nil {
			logger.Warn("Failed to cache reply", zap.Error(err))
		}
	}
	return reply
}

func (e *Engine) handleProfileUpdate(
	ctx context.Context,
	req Request,
	nluResult nlu.Result,
	profile *models.UserProfile,
	resp *Response,
) error {
	if req.UserID == "" {
		resp.Reply = "Bạn đăng nhập để mình lưu thông tin size nhé!"
		return nil
	}

	if profile == nil {
		profile = &models.UserProfile{ID: req.UserID}
	}

	var noted []string
	if nluResult.Entities.Size != "" {
		profile.PreferredSize = strings.ToUpper(nluResult.Entities.Size)
		noted = append(noted, "size "+profile.PreferredSize)
	}
	if nluResult.Entities.Color != "" {
		profile.ColorPreferences = filters.Union(profile.ColorPreferences, nluResult.Entities.Color)
		noted = append(noted, "màu "+nluResult.Entities.Color)
	}

	if len(noted) == 0 {
		resp.Reply = "Bạn cho mình biết size hoặc màu yêu thích để mình ghi nhớ nhé!"
		return nil
	}

	if err := e.db.SaveProfile(profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	resp.Reply = fmt.Sprintf("Đã ghi nhớ %s của bạn. Lần sau mình sẽ ưu tiên gợi ý theo đó!", strings.Join(noted, " và "))
	return nil
}

func (e *Engine) handleStyleAdvice(ctx context.Context, req Request, sessionCtx *conversation.Context, resp *Response) error {
	seed := e.findSeedProduct(req.Message, sessionCtx)

	var complements []stylegraph.Complement
	if seed != nil {
		complements = e.complementsFor(ctx, seed)
	}

	complementContext := formatComplements(seed, complements)

	if e.llm != nil {
		reply, err := e.llm.StyleAdvice(ctx, req.Message, complementContext)
		if err == nil {
			resp.Reply = reply
			resp.Products = complementProducts(e.catalog, complements)
			return nil
		}
		logger.Warn("Style advice generation failed, using template", zap.Error(err))
	}

	if len(complements) > 0 {
		names := make([]string, 0, len(complements))
		for _, c := range complements {
			names = append(names, c.Name)
		}
		resp.Reply = fmt.Sprintf("Với %s bạn có thể phối cùng: %s.", seed.Name, strings.Join(names, ", "))
		resp.Products = complementProducts(e.catalog, complements)
	} else {
		resp.Reply = "Bạn muốn phối đồ cho món nào? Cho mình tên sản phẩm hoặc dịp bạn định mặc nhé!"
	}
	return nil
}

// complementsFor asks the style graph first and falls back to a tag scan
// over the catalog.
func (e *Engine) complementsFor(ctx context.Context, seed *models.Product) []stylegraph.Complement {
	if e.graph != nil {
		complements, err := e.graph.FindComplements(ctx, seed.ID)
		if err != nil {
			logger.Warn("Style graph lookup failed, scanning tags", zap.Error(err))
		} else if len(complements) > 0 {
			return complements
		}
	}

	var complements []stylegraph.Complement
	for _, p := range e.catalog.Snapshot() {
		if p.ID == seed.ID {
			continue
		}
		for _, tag := range seed.MatchWith {
			if strings.Contains(strings.ToLower(p.Name), strings.ToLower(tag)) {
				complements = append(complements, stylegraph.Complement{
					ProductID: p.ID,
					Name:      p.Name,
					Price:     p.Price,
					SharedTag: strings.ToLower(tag),
				})
				break
			}
		}
		if len(complements) >= 5 {
			break
		}
	}
	return complements
}

func (e *Engine) handleCompare(ctx context.Context, req Request, resp *Response) error {
	candidates := search.Lexical(req.Message, e.catalog.Snapshot(), 3)
	if len(candidates) < 2 {
		resp.Reply = "Bạn muốn so sánh những sản phẩm nào? Cho mình tên cụ thể nhé!"
		return nil
	}

	resp.Products = toRanked(candidates)

	if e.llm != nil {
		reply, err := e.llm.CompareProducts(ctx, req.Message, formatProductContext(candidates))
		if err == nil {
			resp.Reply = reply
			return nil
		}
		logger.Warn("Comparison generation failed, using template", zap.Error(err))
	}

	var b strings.Builder
	b.WriteString("So sánh nhanh:\n")
	for _, r := range candidates {
		fmt.Fprintf(&b, "- %s: %sđ", r.Product.Name, formatPrice(r.Product.Price))
		if r.Product.Rating > 0 {
			fmt.Fprintf(&b, ", đánh giá %.1f/5", r.Product.Rating)
		}
		b.WriteString("\n")
	}
	resp.Reply = b.String()
	return nil
}

var policyReplies = []struct {
	keywords []string
	reply    string
}{
	{
		keywords: []string{"ship", "giao hàng", "vận chuyển", "shipping"},
		reply:    "Shop giao hàng toàn quốc trong 2-4 ngày, freeship cho đơn từ 500k bạn nhé!",
	},
	{
		keywords: []string{"đổi trả", "hoàn tiền", "return", "refund"},
		reply:    "Bạn được đổi trả trong 7 ngày nếu sản phẩm còn tag và chưa qua sử dụng.",
	},
	{
		keywords: []string{"bảo hành", "warranty"},
		reply:    "Sản phẩm được bảo hành đường may trong 30 ngày kể từ khi nhận hàng.",
	},
}

func (e *Engine) handlePolicy(_ context.Context, req Request, resp *Response) error {
	lower := strings.ToLower(req.Message)
	for _, entry := range policyReplies {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				resp.Reply = entry.reply
				return nil
			}
		}
	}
	resp.Reply = "Bạn muốn hỏi về giao hàng, đổi trả hay bảo hành? Mình sẵn sàng giải đáp!"
	return nil
}

// findSeedProduct looks for a product named in the message, then falls back
// to the last search query of the session.
func (e *Engine) findSeedProduct(message string, sessionCtx *conversation.Context) *models.Product {
	products := e.catalog.Snapshot()

	if results := search.Lexical(message, products, 1); len(results) > 0 && results[0].Score >= 0.5 {
		return e.catalog.Lookup(results[0].Product.ID)
	}

	if n := len(sessionCtx.RecentSearches); n > 0 {
		last := sessionCtx.RecentSearches[n-1]
		if results := search.Lexical(last.Query, products, 1); len(results) > 0 && results[0].Score >= 0.5 {
			return e.catalog.Lookup(results[0].Product.ID)
		}
	}

	return nil
}

// buildFilterSet folds explicit entities, session preferences and the stored
// profile into one filter set. Session preferences already include this
// turn's mentions.
func buildFilterSet(nluResult nlu.Result, profile *models.UserProfile, sessionCtx *conversation.Context) *filters.FilterSet {
	fs := &filters.FilterSet{}

	prefs := sessionCtx.Preferences
	fs.Colors = filters.Union(fs.Colors, prefs.Colors...)
	fs.Sizes = filters.Union(fs.Sizes, prefs.Sizes...)
	fs.Styles = filters.Union(fs.Styles, prefs.Styles...)
	fs.Occasions = filters.Union(fs.Occasions, prefs.Occasions...)
	if prefs.Price != nil {
		fs.Price = &filters.PriceRange{Min: prefs.Price.Min, Max: prefs.Price.Max}
	}

	if nluResult.Entities.Color != "" {
		fs.Colors = filters.Union(fs.Colors, nluResult.Entities.Color)
	}

	if profile != nil {
		fs.Colors = filters.Union(fs.Colors, profile.ColorPreferences...)
		if profile.PreferredSize != "" {
			fs.Sizes = filters.Union(fs.Sizes, profile.PreferredSize)
		}
		if profile.StylePersonality != "" {
			fs.Styles = filters.Union(fs.Styles, string(profile.StylePersonality))
		}
	}

	return fs
}

func (e *Engine) applyFilters(products []models.Product, fs *filters.FilterSet) []search.Result {
	if fs.IsEmpty() {
		return nil
	}

	var results []search.Result
	for i := range products {
		matches := filters.Evaluate(&products[i], fs)
		relevance := filters.Relevance(matches)
		if relevance <= 0 {
			continue
		}
		reasons := make([]string, 0, len(matches))
		for _, m := range matches {
			if m.Score >= 0.5 && m.Description != "" {
				reasons = append(reasons, m.Description)
			}
		}
		results = append(results, search.Result{
			Product: products[i],
			Score:   relevance,
			Reasons: reasons,
		})
	}

	return sortAndCap(results, stageLimit)
}

func (e *Engine) personalize(products []models.Product, profile *models.UserProfile, sessionCtx *conversation.Context) []search.Result {
	if profile == nil && sessionCtx.Preferences.Price == nil && len(sessionCtx.Preferences.Styles) == 0 {
		return nil
	}

	var results []search.Result
	for i := range products {
		score := e.scorer.Score(&products[i], profile, sessionCtx)
		results = append(results, search.Result{
			Product:         products[i],
			Score:           score.Overall,
			Reasons:         score.Reasons,
			Personalization: score.Overall,
		})
	}

	return sortAndCap(results, stageLimit)
}

func sortAndCap(results []search.Result, limit int) []search.Result {
	search.SortByScore(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func formatProductContext(results []search.Result) string {
	if len(results) == 0 {
		return "(không có sản phẩm phù hợp)"
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s - %sđ", i+1, r.Product.Name, formatPrice(r.Product.Price))
		if colors := r.Product.Colors(); len(colors) > 0 {
			fmt.Fprintf(&b, " - màu: %s", strings.Join(colors, ", "))
		}
		if len(r.Reasons) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(r.Reasons, "; "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatComplements(seed *models.Product, complements []stylegraph.Complement) string {
	if seed == nil {
		return "(chưa xác định được sản phẩm gốc)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sản phẩm gốc: %s\n", seed.Name)
	for _, c := range complements {
		fmt.Fprintf(&b, "- %s (%sđ)\n", c.Name, formatPrice(c.Price))
	}
	return b.String()
}

func templatedSearchReply(results []search.Result) string {
	if len(results) == 0 {
		return "Xin lỗi, mình chưa tìm được sản phẩm phù hợp. Bạn thử mô tả thêm về màu sắc hoặc tầm giá nhé!"
	}

	var b strings.Builder
	b.WriteString("Mình tìm được mấy món này cho bạn:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s - %sđ\n", i+1, r.Product.Name, formatPrice(r.Product.Price))
	}
	return b.String()
}

func complementProducts(cat *catalog.Source, complements []stylegraph.Complement) []RankedProduct {
	var out []RankedProduct
	for _, c := range complements {
		p := cat.Lookup(c.ProductID)
		if p == nil {
			continue
		}
		out = append(out, RankedProduct{
			Product: *p,
			Reasons: []string{"Phối hợp với " + c.SharedTag},
		})
	}
	return out
}

func toRanked(results []search.Result) []RankedProduct {
	out := make([]RankedProduct, 0, len(results))
	for _, r := range results {
		out = append(out, RankedProduct{
			Product: r.Product,
			Score:   r.Score,
			Reasons: r.Reasons,
		})
	}
	return out
}

func productIDs(products []RankedProduct) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.Product.ID)
	}
	return ids
}

// formatPrice renders 299000 as "299.000".
func formatPrice(price int64) string {
	s := fmt.Sprintf("%d", price)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
