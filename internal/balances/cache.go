package balances

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/loomledger/loomledger/internal/accounting/ledgers"
	"github.com/loomledger/loomledger/internal/tenant"
)

// Loader recomputes a ledger balance from journal history.
type Loader func(ctx context.Context) (ledgers.Balance, error)

// Cache keeps replayed ledger balances in Redis behind a per-company
// version. A posting bumps the version, orphaning every cached balance
// of that company at once; singleflight collapses concurrent recomputes
// of the same ledger. With no Redis client the cache degrades to a
// plain replay.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func versionKey(scope tenant.Scope) string {
	return fmt.Sprintf("balances:%s:version", scope.CompanyID)
}

func balanceKey(scope tenant.Scope, ledgerID, version int64) string {
	return fmt.Sprintf("balances:%s:%d:%d", scope.CompanyID, ledgerID, version)
}

func (c *Cache) version(ctx context.Context, scope tenant.Scope) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, versionKey(scope), 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Balance returns the cached balance for a ledger, populating the
// cache through loader on a miss.
func (c *Cache) Balance(ctx context.Context, scope tenant.Scope, ledgerID int64, loader Loader) (ledgers.Balance, error) {
	if loader == nil {
		return ledgers.Balance{}, errors.New("balances: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	ver, err := c.version(ctx, scope)
	if err != nil {
		return ledgers.Balance{}, err
	}
	key := balanceKey(scope, ledgerID, ver)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached ledgers.Balance
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return ledgers.Balance{}, err
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		balance, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(balance)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return nil, err
		}
		return balance, nil
	})
	if err != nil {
		return ledgers.Balance{}, err
	}
	return value.(ledgers.Balance), nil
}

// Bump invalidates every cached balance of the company.
func (c *Cache) Bump(ctx context.Context, scope tenant.Scope) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(scope)).Err()
}
