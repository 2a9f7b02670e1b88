// Package keyValue is a small expiring key/value store used for ephemeral
// data like presence. Backed by redis, or a plain map in self-contained mode.
package keyValue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type localValue struct {
	value   string
	expires time.Time
}

type Store struct {
	sugar         *zap.SugaredLogger
	redisClient   *redis.Client
	selfContained bool

	mutex   sync.RWMutex
	hashmap map[string]localValue
}

func New(sugar *zap.SugaredLogger, redisClient *redis.Client, selfContained bool) *Store {
	s := &Store{
		sugar:         sugar,
		redisClient:   redisClient,
		selfContained: selfContained,
		hashmap:       make(map[string]localValue),
	}

	if selfContained {
		go s.checkForLocalExpiredKeys()
	}
	return s
}

func (s *Store) checkForLocalExpiredKeys() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mutex.Lock()
		for key, v := range s.hashmap {
			if v.expires.Before(time.Now()) {
				delete(s.hashmap, key)
			}
		}
		s.mutex.Unlock()
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if s.selfContained {
		s.mutex.RLock()
		defer s.mutex.RUnlock()

		v := s.hashmap[key]
		if !v.expires.IsZero() && v.expires.Before(time.Now()) {
			return "", nil
		}
		return v.value, nil
	}

	value, err := s.redisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value string, expires time.Duration) error {
	if s.selfContained {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		s.hashmap[key] = localValue{value, time.Now().Add(expires)}
		return nil
	}

	_, err := s.redisClient.Set(ctx, key, value, expires).Result()
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s.selfContained {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		delete(s.hashmap, key)
		return nil
	}

	return s.redisClient.Del(ctx, key).Err()
}
