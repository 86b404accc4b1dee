package otpstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"

	"github.com/redis/go-redis/v9"
)

// KEYS[1] = entry, KEYS[2] = attempt counter.
// The counter inherits the entry's remaining TTL on first use.
var reserveAttemptScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
local n = redis.call("INCR", KEYS[2])
if n == 1 then
  local ttl = redis.call("PTTL", KEYS[1])
  if ttl > 0 then
    redis.call("PEXPIRE", KEYS[2], ttl)
  end
end
return n
`)

var consumeScript = redis.NewScript(`
local n = redis.call("DEL", KEYS[1])
redis.call("DEL", KEYS[2])
return n
`)

type Redis struct {
	client redis.Cmdable
	prefix string
}

// NewRedis stores OTP entries as JSON values that redis expires on its own.
// Attempts live in a sibling counter key so verifiers on any replica share
// one limit.
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client, prefix: "docrequest:otp:"}
}

func (r *Redis) entryKey(key string) string    { return r.prefix + key }
func (r *Redis) attemptsKey(key string) string { return r.prefix + key + ":attempts" }

func (r *Redis) Get(ctx context.Context, key string) (domain.OTPEntry, bool, error) {
	raw, err := r.client.Get(ctx, r.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.OTPEntry{}, false, nil
	}
	if err != nil {
		return domain.OTPEntry{}, false, err
	}
	var entry domain.OTPEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.OTPEntry{}, false, err
	}
	attempts, err := r.client.Get(ctx, r.attemptsKey(key)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return domain.OTPEntry{}, false, err
	}
	entry.Attempts = attempts
	return entry, true, nil
}

// Set replaces the entry and resets its attempt counter.
func (r *Redis) Set(ctx context.Context, key string, entry domain.OTPEntry, ttl time.Duration) error {
	if ttl <= 0 {
		return r.Delete(ctx, key)
	}
	entry.Attempts = 0
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.entryKey(key), payload, ttl)
		pipe.Del(ctx, r.attemptsKey(key))
		return nil
	})
	return err
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.entryKey(key), r.attemptsKey(key)).Err()
}

func (r *Redis) ReserveAttempt(ctx context.Context, key string) (int, bool, error) {
	n, err := reserveAttemptScript.Run(ctx, r.client, []string{r.entryKey(key), r.attemptsKey(key)}).Int()
	if err != nil {
		return 0, false, err
	}
	if n < 0 {
		return 0, false, nil
	}
	return n, true, nil
}

func (r *Redis) Consume(ctx context.Context, key string) (bool, error) {
	n, err := consumeScript.Run(ctx, r.client, []string{r.entryKey(key), r.attemptsKey(key)}).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

var _ usecase.OTPStore = (*Redis)(nil)
