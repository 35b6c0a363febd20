package locks

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// LockKeyPrefix пространство имен ключей блокировки в redis
	LockKeyPrefix = "savings-lock:"

	lockRetries    = 3
	lockRetryDelay = 100 * time.Millisecond
)

// UserLocker сериализует окно find-or-create по пользователю.
// Acquire возвращает release и признак того, что блокировка получена.
type UserLocker interface {
	Acquire(ctx context.Context, user string) (release func(), acquired bool)
}

type RedisUserLocker struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewRedisUserLocker(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *RedisUserLocker {
	return &RedisUserLocker{rdb: rdb, ttl: ttl, log: log}
}

func (l *RedisUserLocker) Acquire(ctx context.Context, user string) (func(), bool) {
	lockKey := LockKeyPrefix + user

	for attempt := 0; attempt < lockRetries; attempt++ {
		acquired, err := l.rdb.SetNX(ctx, lockKey, "processing", l.ttl).Result()
		if err != nil {
			l.log.Error("ошибка получения блокировки в redis",
				slog.String("user", user),
				slog.String("error", err.Error()))
			return func() {}, false
		}
		if acquired {
			return func() {
				if err := l.rdb.Del(context.Background(), lockKey).Err(); err != nil {
					l.log.Error("не удалось снять блокировку",
						slog.String("user", user),
						slog.String("error", err.Error()))
				}
			}, true
		}

		select {
		case <-time.After(lockRetryDelay):
		case <-ctx.Done():
			return func() {}, false
		}
	}

	l.log.Warn("блокировка пользователя не получена, продолжаем без нее",
		slog.String("user", user))
	return func() {}, false
}

// NoOpLocker используется когда redis отключен: гонка find-or-create
// принимается как есть (возможны дубликаты счета savings)
type NoOpLocker struct{}

func NewNoOpLocker() *NoOpLocker {
	return &NoOpLocker{}
}

func (l *NoOpLocker) Acquire(ctx context.Context, user string) (func(), bool) {
	return func() {}, true
}
