package balancecache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tanmay0100/Number-Game-sub001/internal/ledger"
)

// Cache is a short-lived read-through cache over ledger balances. It bounds
// load on the store under bursty client polling; it is never the source of
// truth. Mutating paths call Invalidate, and entries expire on TTL anyway.
type Cache struct {
	Log    *zap.Logger
	Client *redis.Client
	Store  ledger.Store
	TTL    time.Duration

	OnHit  func() // metrics
	OnMiss func() // metrics
}

func New(log *zap.Logger, client *redis.Client, store ledger.Store, ttl time.Duration) *Cache {
	return &Cache{Log: log, Client: client, Store: store, TTL: ttl}
}

// key "balance:account:{accountID}" => decimal string, ex: "125.50"
func key(accountID string) string { return "balance:account:" + accountID }

// Balance returns the cached balance or reads through to the ledger. Redis
// being down degrades to direct reads, never to an error.
func (c *Cache) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	val, err := c.Client.Get(ctx, key(accountID)).Result()
	if err == nil {
		if bal, perr := decimal.NewFromString(val); perr == nil {
			if c.OnHit != nil {
				c.OnHit()
			}
			return bal, nil
		}
		// unparseable entry: drop it and fall through
		_ = c.Client.Del(ctx, key(accountID)).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.Log.Warn("balance cache read failed", zap.Error(err))
	}

	if c.OnMiss != nil {
		c.OnMiss()
	}

	a, err := c.Store.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := c.Client.Set(ctx, key(accountID), a.Balance.String(), c.TTL).Err(); err != nil {
		c.Log.Warn("balance cache write failed", zap.Error(err))
	}
	return a.Balance, nil
}

// Invalidate drops the cached entry after a balance mutation.
func (c *Cache) Invalidate(ctx context.Context, accountID string) error {
	return c.Client.Del(ctx, key(accountID)).Err()
}
