package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clothify/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// SaveConversation stores a serialized session context. Callers treat
// failures as non-fatal.
func (c *Client) SaveConversation(ctx context.Context, sessionID string, blob []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, conversationKey(sessionID), blob, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	logger.Debug("Conversation persisted", zap.String("session_id", sessionID))
	return nil
}

func (c *Client) LoadConversation(ctx context.Context, sessionID string) ([]byte, bool, error) {
	blob, err := c.client.Get(ctx, conversationKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load conversation: %w", err)
	}

	logger.Debug("Conversation loaded", zap.String("session_id", sessionID))
	return blob, true, nil
}

// SetReply caches a generated reply keyed by a message hash.
func (c *Client) SetReply(ctx context.Context, messageHash, reply string, ttl time.Duration) error {
	err := c.client.Set(ctx, replyKey(messageHash), reply, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set reply cache: %w", err)
	}

	logger.Debug("Reply cached", zap.String("message_hash", messageHash))
	return nil
}

func (c *Client) GetReply(ctx context.Context, messageHash string) (string, bool, error) {
	reply, err := c.client.Get(ctx, replyKey(messageHash)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get reply cache: %w", err)
	}

	logger.Debug("Reply cache hit", zap.String("message_hash", messageHash))
	return reply, true, nil
}

// InvalidateReplies clears the reply cache, typically after a catalog
// refresh changes what would be recommended.
func (c *Client) InvalidateReplies(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "reply:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Reply cache invalidated")
	return nil
}

func conversationKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s", sessionID)
}

func replyKey(hash string) string {
	return fmt.Sprintf("reply:%s", hash)
}
