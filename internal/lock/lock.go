package lock

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jhsfully/account/internal/config"
	"github.com/jhsfully/account/internal/models"
)

// releaseScript deletes the lock key only when it still holds our token,
// so a lease that expired and was re-acquired by another holder is
// never released from here.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// LockService serializes balance mutations on a single account across
// every service instance sharing the same Redis. The lock auto-expires
// after the lease timeout, so a crashed holder cannot deadlock the
// account. Each acquisition yields its own token; the holder carries it
// and hands it back on release, so two holders of the same key on one
// instance (possible once a lease expires mid-flight) cannot release
// each other's lock.
type LockService struct {
	redis  *redis.Client
	config *config.LockConfig
}

func NewLockService(redisClient *redis.Client, cfg *config.LockConfig) *LockService {
	return &LockService{
		redis:  redisClient,
		config: cfg,
	}
}

func (s *LockService) lockKey(key string) string {
	return s.config.KeyPrefix + ":" + key
}

// Acquire blocks up to the configured wait timeout trying to take the
// named lock, returning the token that identifies this acquisition. A
// window expiry surfaces as the ACCOUNT_TRANSACTION_LOCK business
// error; Redis being unreachable surfaces as a plain error.
func (s *LockService) Acquire(ctx context.Context, key string) (string, error) {
	token := uuid.New().String()
	lockKey := s.lockKey(key)
	deadline := time.Now().Add(s.config.WaitTimeout)

	for {
		ok, err := s.redis.SetNX(ctx, lockKey, token, s.config.LeaseTimeout).Result()
		if err != nil {
			return "", fmt.Errorf("lock provider unavailable: %w", err)
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			log.Printf("[LOCK] Acquisition timed out for key %s", lockKey)
			return "", models.NewAccountError(models.ErrAccountTransactionLock)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.config.SpinInterval):
		}
	}
}

// Release gives the lock back using the token Acquire returned. A stale
// token, or an empty one from a failed acquisition, is a no-op.
func (s *LockService) Release(ctx context.Context, key, token string) {
	if token == "" {
		return
	}

	lockKey := s.lockKey(key)
	if err := s.redis.Eval(ctx, releaseScript, []string{lockKey}, token).Err(); err != nil {
		// The lease will expire on its own; nothing else to do here.
		log.Printf("[LOCK] Release failed for key %s: %v", lockKey, err)
	}
}

// WithLock runs fn while holding the named lock, releasing it on every
// exit path.
func (s *LockService) WithLock(ctx context.Context, key string, fn func() error) error {
	token, err := s.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer s.Release(ctx, key, token)
	return fn()
}
