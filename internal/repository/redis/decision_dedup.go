package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"stockAgent/domain"
	"stockAgent/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// DecisionLog is the store a DedupDecisionLog writes through to.
type DecisionLog interface {
	Record(ctx context.Context, d domain.Decision) error
}

// DedupDecisionLog suppresses a decision when the same (kind, subject) was
// already recorded within ttl. The lock is advisory: when Redis is
// unavailable the decision is written anyway.
type DedupDecisionLog struct {
	next   DecisionLog
	client *redis.Client
	ttl    time.Duration
}

func NewDedupDecisionLog(next DecisionLog, client *redis.Client, ttl time.Duration) *DedupDecisionLog {
	return &DedupDecisionLog{
		next:   next,
		client: client,
		ttl:    ttl,
	}
}

func (l *DedupDecisionLog) Record(ctx context.Context, d domain.Decision) error {
	key := DedupKey(d)

	acquired, err := l.client.SetNX(ctx, key, d.ID, l.ttl).Result()
	if err != nil {
		logger.Warn("decision_dedup_unavailable", "key", key, "error", err)
		return l.next.Record(ctx, d)
	}
	if !acquired {
		return domain.ErrDuplicateDecision
	}

	if err := l.next.Record(ctx, d); err != nil {
		// release so a retry is not suppressed
		if delErr := l.client.Del(ctx, key).Err(); delErr != nil {
			logger.Warn("decision_dedup_release_failed", "key", key, "error", delErr)
		}
		return err
	}

	return nil
}

// DedupKey identifies the condition a decision reports on.
// key format: "decision:dedup:{kind}:{subject}"
func DedupKey(d domain.Decision) string {
	return fmt.Sprintf("decision:dedup:%s:%s", d.Kind, dedupSubject(d))
}

func dedupSubject(d domain.Decision) string {
	for _, k := range []string{"task_id", "batch_id"} {
		if v, ok := d.Context[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	if d.RelatedItemID != nil {
		return *d.RelatedItemID
	}
	sum := sha1.Sum([]byte(d.Text))
	return hex.EncodeToString(sum[:8])
}
