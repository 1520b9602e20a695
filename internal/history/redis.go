package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sentinelsec/teamsync/internal/config"
	"github.com/sentinelsec/teamsync/internal/models"
)

// Store keeps a capped recent-message history per room so a relay can replay
// it to sessions joining a room. It is an ephemeral cache, not durable
// storage.
type Store interface {
	Append(ctx context.Context, roomID string, message *models.ChatMessage) error
	Recent(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error)
	Remove(ctx context.Context, roomID, messageID string) error
	DropRoom(ctx context.Context, roomID string) error
}

type redisStore struct {
	client *redis.Client
	limit  int
}

// NewRedisStore connects to Redis and returns a history store keeping at most
// limit messages per room.
func NewRedisStore(cfg config.RedisConfig, limit int) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if limit <= 0 {
		limit = 100
	}
	return &redisStore{client: client, limit: limit}, nil
}

func roomKey(roomID string) string {
	return fmt.Sprintf("room:%s:messages", roomID)
}

func (s *redisStore) Append(ctx context.Context, roomID string, message *models.ChatMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := roomKey(roomID)
	err = s.client.ZAdd(ctx, key, &redis.Z{
		Score:  float64(message.Timestamp.UnixMilli()),
		Member: data,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	// Cap the history to the most recent entries.
	s.client.ZRemRangeByRank(ctx, key, 0, int64(-s.limit-1))
	return nil
}

func (s *redisStore) Recent(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	// Last N entries in chronological order.
	result, err := s.client.ZRange(ctx, roomKey(roomID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room history: %w", err)
	}

	messages := make([]models.ChatMessage, 0, len(result))
	for _, raw := range result {
		var message models.ChatMessage
		if err := json.Unmarshal([]byte(raw), &message); err != nil {
			continue // Skip invalid entries
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func (s *redisStore) Remove(ctx context.Context, roomID, messageID string) error {
	key := roomKey(roomID)
	entries, err := s.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to scan room history: %w", err)
	}
	for _, raw := range entries {
		var message models.ChatMessage
		if err := json.Unmarshal([]byte(raw), &message); err != nil {
			continue
		}
		if message.ID == messageID {
			return s.client.ZRem(ctx, key, raw).Err()
		}
	}
	return nil
}

func (s *redisStore) DropRoom(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, roomKey(roomID)).Err()
}
