package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const confirmationKeyPrefix = "confirmation:nonce:"

type nonceClaimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ConfirmationLedger spends confirmation nonces so each confirmation runs at most once.
// Redis is authoritative when configured; the in-memory set covers single-instance
// deployments and Redis outages.
type ConfirmationLedger struct {
	redis  nonceClaimer
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	spent map[string]time.Time
}

// NewConfirmationLedger builds a ledger. claimer may be nil.
func NewConfirmationLedger(claimer nonceClaimer, logger *zap.Logger) *ConfirmationLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmationLedger{redis: claimer, logger: logger, now: time.Now, spent: map[string]time.Time{}}
}

// Consume marks the nonce as spent until expiresAt. It returns false when the nonce
// was already spent.
func (l *ConfirmationLedger) Consume(ctx context.Context, nonce string, expiresAt time.Time) bool {
	ttl := expiresAt.Sub(l.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	if l.redis != nil {
		created, err := l.redis.Claim(ctx, confirmationKeyPrefix+nonce, ttl)
		if err == nil {
			return created && l.consumeLocal(nonce, ttl)
		}
		l.logger.Warn("confirmation ledger falling back to memory", zap.Error(err))
	}
	return l.consumeLocal(nonce, ttl)
}

func (l *ConfirmationLedger) consumeLocal(nonce string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, until := range l.spent {
		if now.After(until) {
			delete(l.spent, key)
		}
	}
	if _, used := l.spent[nonce]; used {
		return false
	}
	l.spent[nonce] = now.Add(ttl)
	return true
}
