package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultResetMailKey = "recipehub:reset_mail"
	retrySuffix         = ":retry"
)

// ErrEmpty is returned by Pop when nothing arrived before the timeout.
var ErrEmpty = errors.New("queue empty")

// ResetMail is one pending password reset email.
type ResetMail struct {
	Email       string    `json:"email"`
	ResetURL    string    `json:"resetUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
	RequestedAt time.Time `json:"requestedAt"`
	Attempt     int       `json:"attempt"`
}

// ResetMailQueue is a Redis list of ready messages plus a sorted set of
// messages waiting for their retry time.
type ResetMailQueue struct {
	rdb      *redis.Client
	key      string
	retryKey string
	now      func() time.Time
}

func NewResetMailQueue(rdb *redis.Client, key string) *ResetMailQueue {
	if key == "" {
		key = DefaultResetMailKey
	}

	return &ResetMailQueue{
		rdb:      rdb,
		key:      key,
		retryKey: key + retrySuffix,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SendResetLink enqueues a reset email for the worker.
func (q *ResetMailQueue) SendResetLink(ctx context.Context, email, resetURL string, expiresAt time.Time) error {
	return q.Publish(ctx, ResetMail{
		Email:       email,
		ResetURL:    resetURL,
		ExpiresAt:   expiresAt,
		RequestedAt: q.now(),
	})
}

func (q *ResetMailQueue) Publish(ctx context.Context, m ResetMail) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode reset mail: %w", err)
	}

	return q.rdb.LPush(ctx, q.key, raw).Err()
}

// Pop blocks for up to timeout waiting for the oldest ready message.
func (q *ResetMailQueue) Pop(ctx context.Context, timeout time.Duration) (ResetMail, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ResetMail{}, ErrEmpty
		}
		return ResetMail{}, err
	}

	// BRPOP replies with [key, value]
	if len(res) != 2 {
		return ResetMail{}, fmt.Errorf("unexpected BRPOP reply of %d elements", len(res))
	}

	var m ResetMail
	if err := json.Unmarshal([]byte(res[1]), &m); err != nil {
		return ResetMail{}, fmt.Errorf("decode reset mail: %w", err)
	}

	return m, nil
}

// Retry parks m until at.
func (q *ResetMailQueue) Retry(ctx context.Context, m ResetMail, at time.Time) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode reset mail: %w", err)
	}

	return q.rdb.ZAdd(ctx, q.retryKey, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: raw,
	}).Err()
}

// PromoteDue moves parked messages whose retry time has come back onto the ready list.
func (q *ResetMailQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	due, err := q.rdb.ZRangeByScore(ctx, q.retryKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range due {
		// ZREM decides which worker owns the move when several promote at once
		removed, err := q.rdb.ZRem(ctx, q.retryKey, member).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}

		if err := q.rdb.LPush(ctx, q.key, member).Err(); err != nil {
			return moved, err
		}
		moved++
	}

	return moved, nil
}

// Len reports ready and parked message counts.
func (q *ResetMailQueue) Len(ctx context.Context) (ready, parked int64, err error) {
	pipe := q.rdb.Pipeline()
	readyCmd := pipe.LLen(ctx, q.key)
	parkedCmd := pipe.ZCard(ctx, q.retryKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	return readyCmd.Val(), parkedCmd.Val(), nil
}
