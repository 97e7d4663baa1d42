package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/clothify/backend/internal/storage/models"
	"github.com/clothify/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price INTEGER NOT NULL,
		description TEXT,
		images TEXT,
		url TEXT,
		brand TEXT,
		styles TEXT,
		occasions TEXT,
		match_with TEXT,
		why_recommend TEXT,
		variants TEXT,
		rating REAL DEFAULT 0,
		review_count INTEGER DEFAULT 0,
		sold INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_price ON products(price);
	CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand);

	CREATE TABLE IF NOT EXISTS user_profiles (
		id TEXT PRIMARY KEY,
		style_personality TEXT DEFAULT 'casual',
		preferred_size TEXT,
		color_preferences TEXT,
		brand_preferences TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS purchases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		price INTEGER NOT NULL,
		rating REAL,
		review TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES user_profiles(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases(user_id);

	CREATE TABLE IF NOT EXISTS search_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		query TEXT NOT NULL,
		result_count INTEGER,
		clicked_ids TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES user_profiles(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_search_user ON search_history(user_id);

	CREATE TABLE IF NOT EXISTS product_ratings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES user_profiles(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_ratings_user ON product_ratings(user_id);

	CREATE TABLE IF NOT EXISTS chat_history (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_id TEXT,
		message TEXT NOT NULL,
		intent TEXT,
		reply TEXT,
		product_ids TEXT,
		confidence REAL,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_session ON chat_history(session_id);
	CREATE INDEX IF NOT EXISTS idx_chat_created ON chat_history(created_at);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id TEXT NOT NULL,
		helpful INTEGER NOT NULL,
		comment TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (chat_id) REFERENCES chat_history(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_chat ON feedback(chat_id);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) UpsertProduct(p *models.Product) error {
	images, _ := json.Marshal(p.Images)
	styles, _ := json.Marshal(p.Styles)
	occasions, _ := json.Marshal(p.Occasions)
	matchWith, _ := json.Marshal(p.MatchWith)
	variants, _ := json.Marshal(p.Variants)

	query := `
		INSERT INTO products (id, name, price, description, images, url, brand, styles, occasions,
			match_with, why_recommend, variants, rating, review_count, sold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			description = excluded.description,
			images = excluded.images,
			url = excluded.url,
			brand = excluded.brand,
			styles = excluded.styles,
			occasions = excluded.occasions,
			match_with = excluded.match_with,
			why_recommend = excluded.why_recommend,
			variants = excluded.variants,
			rating = excluded.rating,
			review_count = excluded.review_count,
			sold = excluded.sold,
			updated_at = excluded.updated_at
	`

	_, err := c.db.Exec(
		query,
		p.ID, p.Name, p.Price, p.Description, string(images), p.URL, p.Brand,
		string(styles), string(occasions), string(matchWith), p.WhyRecommend,
		string(variants), p.Rating, p.ReviewCount, p.Sold,
		p.CreatedAt.Unix(), p.UpdatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	logger.Debug("Product upserted", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return nil
}

func (c *Client) ListProducts() ([]models.Product, error) {
	query := `
		SELECT id, name, price, description, images, url, brand, styles, occasions,
			match_with, why_recommend, variants, rating, review_count, sold, created_at, updated_at
		FROM products
	`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	return products, nil
}

func (c *Client) GetProduct(id string) (*models.Product, error) {
	query := `
		SELECT id, name, price, description, images, url, brand, styles, occasions,
			match_with, why_recommend, variants, rating, review_count, sold, created_at, updated_at
		FROM products WHERE id = ?
	`

	rows, err := c.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("product not found: %s", id)
	}

	return scanProduct(rows)
}

func scanProduct(rows *sql.Rows) (*models.Product, error) {
	var p models.Product
	var images, styles, occasions, matchWith, variants string
	var createdAt, updatedAt int64

	err := rows.Scan(
		&p.ID, &p.Name, &p.Price, &p.Description, &images, &p.URL, &p.Brand,
		&styles, &occasions, &matchWith, &p.WhyRecommend, &variants,
		&p.Rating, &p.ReviewCount, &p.Sold, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	json.Unmarshal([]byte(images), &p.Images)
	json.Unmarshal([]byte(styles), &p.Styles)
	json.Unmarshal([]byte(occasions), &p.Occasions)
	json.Unmarshal([]byte(matchWith), &p.MatchWith)
	json.Unmarshal([]byte(variants), &p.Variants)

	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)

	return &p, nil
}

// GetProfile returns (nil, nil) when the user has no profile yet.
func (c *Client) GetProfile(userID string) (*models.UserProfile, error) {
	query := `
		SELECT id, style_personality, preferred_size, color_preferences, brand_preferences, created_at, updated_at
		FROM user_profiles WHERE id = ?
	`

	var p models.UserProfile
	var style, colors, brands string
	var preferredSize sql.NullString
	var createdAt, updatedAt int64

	err := c.db.QueryRow(query, userID).Scan(
		&p.ID, &style, &preferredSize, &colors, &brands, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.StylePersonality = models.StylePersonality(style)
	p.PreferredSize = preferredSize.String
	json.Unmarshal([]byte(colors), &p.ColorPreferences)
	json.Unmarshal([]byte(brands), &p.BrandPreferences)
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)

	if err := c.loadHistories(&p); err != nil {
		return nil, err
	}

	return &p, nil
}

func (c *Client) loadHistories(p *models.UserProfile) error {
	rows, err := c.db.Query(
		`SELECT product_id, price, COALESCE(rating, 0), COALESCE(review, ''), created_at FROM purchases WHERE user_id = ? ORDER BY created_at`,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load purchases: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var purchase models.Purchase
		var createdAt int64
		if err := rows.Scan(&purchase.ProductID, &purchase.Price, &purchase.Rating, &purchase.Review, &createdAt); err != nil {
			return fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchase.CreatedAt = time.Unix(createdAt, 0)
		p.Purchases = append(p.Purchases, purchase)
	}

	searchRows, err := c.db.Query(
		`SELECT query, result_count, clicked_ids, created_at FROM search_history WHERE user_id = ? ORDER BY created_at`,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load search history: %w", err)
	}
	defer searchRows.Close()

	for searchRows.Next() {
		var record models.SearchRecord
		var clicked string
		var createdAt int64
		if err := searchRows.Scan(&record.Query, &record.ResultCount, &clicked, &createdAt); err != nil {
			return fmt.Errorf("failed to scan search record: %w", err)
		}
		json.Unmarshal([]byte(clicked), &record.ClickedIDs)
		record.CreatedAt = time.Unix(createdAt, 0)
		p.Searches = append(p.Searches, record)
	}

	ratingRows, err := c.db.Query(
		`SELECT product_id, rating, created_at FROM product_ratings WHERE user_id = ? ORDER BY created_at`,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load ratings: %w", err)
	}
	defer ratingRows.Close()

	for ratingRows.Next() {
		var rating models.ProductRating
		var createdAt int64
		if err := ratingRows.Scan(&rating.ProductID, &rating.Rating, &createdAt); err != nil {
			return fmt.Errorf("failed to scan rating: %w", err)
		}
		rating.CreatedAt = time.Unix(createdAt, 0)
		p.Ratings = append(p.Ratings, rating)
	}

	return nil
}

func (c *Client) SaveProfile(p *models.UserProfile) error {
	colors, _ := json.Marshal(p.ColorPreferences)
	brands, _ := json.Marshal(p.BrandPreferences)

	query := `
		INSERT INTO user_profiles (id, style_personality, preferred_size, color_preferences, brand_preferences, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			style_personality = excluded.style_personality,
			preferred_size = excluded.preferred_size,
			color_preferences = excluded.color_preferences,
			brand_preferences = excluded.brand_preferences,
			updated_at = excluded.updated_at
	`

	_, err := c.db.Exec(
		query,
		p.ID, string(p.StylePersonality), p.PreferredSize, string(colors), string(brands),
		p.CreatedAt.Unix(), time.Now().Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	logger.Debug("Profile saved", zap.String("user_id", p.ID))
	return nil
}

func (c *Client) AddPurchase(userID string, purchase models.Purchase) error {
	query := `INSERT INTO purchases (user_id, product_id, price, rating, review, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := c.db.Exec(query, userID, purchase.ProductID, purchase.Price, purchase.Rating, purchase.Review, purchase.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to add purchase: %w", err)
	}

	return nil
}

func (c *Client) AddSearchRecord(userID string, record models.SearchRecord) error {
	clicked, _ := json.Marshal(record.ClickedIDs)

	query := `INSERT INTO search_history (user_id, query, result_count, clicked_ids, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := c.db.Exec(query, userID, record.Query, record.ResultCount, string(clicked), record.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to add search record: %w", err)
	}

	return nil
}

func (c *Client) AddRating(userID string, rating models.ProductRating) error {
	query := `INSERT INTO product_ratings (user_id, product_id, rating, created_at) VALUES (?, ?, ?, ?)`

	_, err := c.db.Exec(query, userID, rating.ProductID, rating.Rating, rating.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to add rating: %w", err)
	}

	return nil
}

func (c *Client) InsertChatRecord(record *models.ChatRecord) error {
	productIDs, _ := json.Marshal(record.ProductIDs)

	query := `
		INSERT INTO chat_history (id, session_id, user_id, message, intent, reply, product_ids, confidence, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		record.ID, record.SessionID, record.UserID, record.Message, record.Intent,
		record.Reply, string(productIDs), record.Confidence, record.LatencyMS,
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert chat record: %w", err)
	}

	logger.Info("Chat turn recorded",
		zap.String("chat_id", record.ID),
		zap.String("intent", record.Intent),
		zap.Int("latency_ms", record.LatencyMS),
	)

	return nil
}

func (c *Client) GetChatHistory(sessionID string, limit int) ([]models.ChatRecord, error) {
	query := `
		SELECT id, message, intent, reply, confidence, created_at
		FROM chat_history
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}
	defer rows.Close()

	var records []models.ChatRecord
	for rows.Next() {
		var r models.ChatRecord
		var createdAt int64

		err := rows.Scan(&r.ID, &r.Message, &r.Intent, &r.Reply, &r.Confidence, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.SessionID = sessionID
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, nil
}

func (c *Client) StoreFeedback(feedback *models.Feedback) error {
	query := `INSERT INTO feedback (chat_id, helpful, comment, created_at) VALUES (?, ?, ?, ?)`

	helpful := 0
	if feedback.Helpful {
		helpful = 1
	}

	_, err := c.db.Exec(query, feedback.ChatID, helpful, feedback.Comment, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	logger.Info("Feedback stored",
		zap.String("chat_id", feedback.ChatID),
		zap.Bool("helpful", feedback.Helpful),
	)

	return nil
}
