package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"gopherai-pdfchat/internal/config"
	"gopherai-pdfchat/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions between requests. Load hands out a private copy; the
// caller writes it back with Save. Concurrent requests of the same session are
// last-write-wins.
type Store interface {
	Load(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, sess *model.Session) error
	Delete(ctx context.Context, id string) error
	// ReferencedPaths returns the backing file of every document of every live session.
	ReferencedPaths(ctx context.Context) (map[string]struct{}, error)
}

// New picks the backend named in cfg. The redis client is only used by the redis backend.
func New(cfg *config.Config, client *redis.Client) (Store, error) {
	switch cfg.Session.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.SessionTTL()), nil
	case "redis":
		if client == nil {
			return nil, errors.New("redis session backend requires a redis client")
		}
		return NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.SessionTTL()), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// LoadOrCreate returns the stored session for id, or a fresh empty one.
func LoadOrCreate(ctx context.Context, store Store, id string) (*model.Session, bool, error) {
	sess, err := store.Load(ctx, id)
	if err == nil {
		return sess, false, nil
	}
	if errors.Is(err, ErrSessionNotFound) {
		return model.NewSession(id), true, nil
	}
	return nil, false, err
}
