// Package stylegraph keeps a product graph in Neo4j built from catalog
// "match-with" and style tags. Style-advice and compare flows query it for
// complementary products.
package stylegraph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/clothify/backend/internal/storage/models"
	"github.com/clothify/backend/pkg/circuitbreaker"
	"github.com/clothify/backend/pkg/logger"
	"github.com/clothify/backend/pkg/retry"
)

type Client struct {
	driver      neo4j.DriverWithContext
	database    string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

// Complement is a product suggested to be worn with another.
type Complement struct {
	ProductID string
	Name      string
	Price     int64
	SharedTag string
}

func NewClient(uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		uri,
		neo4j.BasicAuth(username, password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx := context.Background()
	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	cb := circuitbreaker.New("stylegraph", circuitbreaker.Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          20 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.DefaultConfig()
	retryConfig.InitialDelay = 200 * time.Millisecond
	retryConfig.MaxDelay = 3 * time.Second
	retryConfig.Logger = logger.GetLogger()

	logger.Info("Style graph client initialized", zap.String("uri", uri))

	return &Client{
		driver:      driver,
		database:    database,
		cb:          cb,
		retryConfig: retryConfig,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) executeWithRetry(ctx context.Context, operation func(neo4j.SessionWithContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
			defer session.Close(ctx)
			return operation(session)
		})
	})
}

// SyncProduct upserts the product node, its style tags, and its match-with
// edges.
func (c *Client) SyncProduct(ctx context.Context, p *models.Product) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `
		MERGE (p:Product {id: $id})
		SET p.name = $name,
		    p.price = $price,
		    p.updated_at = timestamp()
		WITH p
		UNWIND $styles AS style
		MERGE (t:Tag {name: style})
		MERGE (p)-[:TAGGED]->(t)
		WITH DISTINCT p
		UNWIND $match_with AS tag
		MERGE (m:Tag {name: tag})
		MERGE (p)-[:MATCHES_WITH]->(m)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"id":         p.ID,
		"name":       p.Name,
		"price":      p.Price,
		"styles":     lowered(p.Styles),
		"match_with": lowered(p.MatchWith),
	})

	if err != nil {
		return fmt.Errorf("failed to sync product: %w", err)
	}

	logger.Debug("Product synced to style graph", zap.String("product_id", p.ID))

	return nil
}

// SyncCatalog upserts every product; individual failures abort the sync.
func (c *Client) SyncCatalog(ctx context.Context, products []models.Product) error {
	for i := range products {
		if err := c.SyncProduct(ctx, &products[i]); err != nil {
			return err
		}
	}

	logger.Info("Catalog synced to style graph", zap.Int("products", len(products)))
	return nil
}

// FindComplements returns products tagged with what the source product
// matches with.
func (c *Client) FindComplements(ctx context.Context, productID string) ([]Complement, error) {
	var complements []Complement

	err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		query := `
			MATCH (p:Product {id: $id})-[:MATCHES_WITH]->(t:Tag)<-[:TAGGED]-(other:Product)
			WHERE other.id <> $id
			RETURN DISTINCT other.id, other.name, other.price, t.name
			LIMIT 10
		`

		result, err := session.Run(ctx, query, map[string]interface{}{
			"id": productID,
		})
		if err != nil {
			return fmt.Errorf("failed to find complements: %w", err)
		}

		for result.Next(ctx) {
			record := result.Record()

			id, _ := record.Get("other.id")
			name, _ := record.Get("other.name")
			price, _ := record.Get("other.price")
			tag, _ := record.Get("t.name")

			complements = append(complements, Complement{
				ProductID: id.(string),
				Name:      name.(string),
				Price:     price.(int64),
				SharedTag: tag.(string),
			})
		}

		if err = result.Err(); err != nil {
			return fmt.Errorf("error iterating results: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Complement lookup completed",
		zap.String("product_id", productID),
		zap.Int("results", len(complements)),
	)

	return complements, nil
}

func lowered(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
