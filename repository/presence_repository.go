package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-backend/document"
)

// PresenceRepository keeps typing indicators in Redis under a per-(chat,user)
// key with a TTL. Expiry is store-driven; absence means "not typing".
type PresenceRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceRepository(client *redis.Client, ttl time.Duration) *PresenceRepository {
	return &PresenceRepository{client: client, ttl: ttl}
}

func typingKey(chatID, userID string) string {
	return fmt.Sprintf("chat:%s:typing:%s", chatID, userID)
}

// SetTyping upserts the indicator and resets its TTL clock. A "stopped
// typing" event drops the key immediately instead of waiting out the TTL.
func (repo *PresenceRepository) SetTyping(ctx context.Context, indicator document.TypingIndicator) error {
	key := typingKey(indicator.ChatID, indicator.UserID)
	if !indicator.IsTyping {
		return repo.client.Del(ctx, key).Err()
	}
	data, err := json.Marshal(indicator)
	if err != nil {
		return err
	}
	return repo.client.Set(ctx, key, data, repo.ttl).Err()
}

// TypingUsers lists users with a live indicator in the chat.
func (repo *PresenceRepository) TypingUsers(ctx context.Context, chatID string) ([]string, error) {
	pattern := fmt.Sprintf("chat:%s:typing:*", chatID)
	var users []string
	iter := repo.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		data, err := repo.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var indicator document.TypingIndicator
		if err := json.Unmarshal(data, &indicator); err != nil {
			continue
		}
		users = append(users, indicator.UserID)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
