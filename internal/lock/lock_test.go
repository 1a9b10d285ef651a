package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/jhsfully/account/internal/config"
	"github.com/jhsfully/account/internal/models"
	"github.com/stretchr/testify/assert"
)

func testConfig() *config.LockConfig {
	return &config.LockConfig{
		KeyPrefix:    "ACLK",
		WaitTimeout:  200 * time.Millisecond,
		LeaseTimeout: 15 * time.Second,
		SpinInterval: time.Millisecond,
	}
}

func TestLockService_Acquire(t *testing.T) {
	ctx := context.Background()

	t.Run("free lock is taken on the first attempt", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewLockService(client, testConfig())

		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(true)

		token, err := service.Acquire(ctx, "1000000000")
		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("held lock is retried until the holder releases", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewLockService(client, testConfig())

		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(false)
		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(true)

		_, err := service.Acquire(ctx, "1000000000")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wait window expiry maps to the lock business error", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cfg := testConfig()
		cfg.WaitTimeout = 0
		service := NewLockService(client, cfg)

		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(false)

		token, err := service.Acquire(ctx, "1000000000")
		assert.Empty(t, token)
		accErr := models.AsAccountError(err)
		assert.NotNil(t, accErr)
		assert.Equal(t, models.ErrAccountTransactionLock, accErr.Code)
	})

	t.Run("redis failure surfaces as an infrastructure error", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewLockService(client, testConfig())

		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).
			SetErr(errors.New("connection refused"))

		_, err := service.Acquire(ctx, "1000000000")
		assert.Error(t, err)
		assert.Nil(t, models.AsAccountError(err))
	})
}

func TestLockService_Release(t *testing.T) {
	ctx := context.Background()

	t.Run("held lock runs the compare-and-delete script", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewLockService(client, testConfig())

		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(true)

		token, err := service.Acquire(ctx, "1000000000")
		assert.NoError(t, err)

		mock.ExpectEval(releaseScript, []string{"ACLK:1000000000"}, token).SetVal(int64(1))
		service.Release(ctx, "1000000000", token)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty token from a failed acquisition is a no-op", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewLockService(client, testConfig())

		service.Release(ctx, "1000000000", "")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("each holder releases with its own token", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewLockService(client, testConfig())

		// First holder takes the lock; its lease then expires in Redis
		// and a second holder on the same instance takes the same key.
		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(true)
		tokenA, err := service.Acquire(ctx, "1000000000")
		assert.NoError(t, err)

		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(true)
		tokenB, err := service.Acquire(ctx, "1000000000")
		assert.NoError(t, err)
		assert.NotEqual(t, tokenA, tokenB)

		// The late release from the first holder carries its own stale
		// token, so the script declines it and the live lock survives.
		mock.ExpectEval(releaseScript, []string{"ACLK:1000000000"}, tokenA).SetVal(int64(0))
		service.Release(ctx, "1000000000", tokenA)

		mock.ExpectEval(releaseScript, []string{"ACLK:1000000000"}, tokenB).SetVal(int64(1))
		service.Release(ctx, "1000000000", tokenB)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLockService_WithLock(t *testing.T) {
	ctx := context.Background()

	t.Run("releases after the callback returns an error", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewLockService(client, testConfig())

		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(true)
		mock.Regexp().ExpectEval(`(?s).*`, []string{"ACLK:1000000000"}, `.*`).SetVal(int64(1))

		wantErr := errors.New("balance change failed")
		err := service.WithLock(ctx, "1000000000", func() error { return wantErr })
		assert.ErrorIs(t, err, wantErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("callback never runs when acquisition times out", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cfg := testConfig()
		cfg.WaitTimeout = 0
		service := NewLockService(client, cfg)

		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(false)

		ran := false
		err := service.WithLock(ctx, "1000000000", func() error { ran = true; return nil })
		assert.NotNil(t, models.AsAccountError(err))
		assert.False(t, ran)
	})

	t.Run("second contender waits and sees what the first wrote", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cfg := testConfig()
		cfg.WaitTimeout = 5 * time.Second
		cfg.SpinInterval = 100 * time.Millisecond
		service := NewLockService(client, cfg)

		// The second contender finds the lock held on its first try and
		// wins it only after the first holder's release.
		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(true)
		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(false)
		mock.Regexp().ExpectEval(`(?s).*`, []string{"ACLK:1000000000"}, `.*`).SetVal(int64(1))
		mock.Regexp().ExpectSetNX("ACLK:1000000000", `.*`, 15*time.Second).SetVal(true)
		mock.Regexp().ExpectEval(`(?s).*`, []string{"ACLK:1000000000"}, `.*`).SetVal(int64(1))

		balance := int64(10000)
		var observed int64
		firstHolding := make(chan struct{})
		firstMayFinish := make(chan struct{})
		errs := make(chan error, 2)

		go func() {
			errs <- service.WithLock(ctx, "1000000000", func() error {
				balance -= 1500
				close(firstHolding)
				<-firstMayFinish
				return nil
			})
		}()

		<-firstHolding
		go func() {
			errs <- service.WithLock(ctx, "1000000000", func() error {
				observed = balance
				balance -= 1000
				return nil
			})
		}()

		// Let the second contender hit the held lock, then release well
		// inside its retry interval.
		time.Sleep(30 * time.Millisecond)
		close(firstMayFinish)

		assert.NoError(t, <-errs)
		assert.NoError(t, <-errs)
		assert.Equal(t, int64(8500), observed)
		assert.Equal(t, int64(7500), balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
