package adapter

import (
	"context"
	"encoding/json"
	"time"

	cacheport "github.com/yasirimran733/campus-connect/internal/infrastructure/cache/port"
	"github.com/yasirimran733/campus-connect/internal/repository/port"
)

const userCacheTTL = 10 * time.Minute

// CachedUserDirectory decorates a UserDirectory with a cache. Every broadcast
// frame carries the sender's display name, so the messaging hot path would
// otherwise hit the users table once per message.
type CachedUserDirectory struct {
	next  port.UserDirectory
	cache cacheport.Cache
}

func NewCachedUserDirectory(next port.UserDirectory, cache cacheport.Cache) *CachedUserDirectory {
	return &CachedUserDirectory{next: next, cache: cache}
}

var _ port.UserDirectory = (*CachedUserDirectory)(nil)

func (d *CachedUserDirectory) FindByID(ctx context.Context, id string) (*port.User, error) {
	key := "user:" + id

	if cached, err := d.cache.Get(ctx, key); err == nil {
		var u port.User
		if err := json.Unmarshal([]byte(cached), &u); err == nil {
			return &u, nil
		}
		// undecodable entry: fall through and overwrite
	}

	u, err := d.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(u); err == nil {
		// best effort; a failed Set only costs the next lookup
		_ = d.cache.Set(ctx, key, string(encoded), userCacheTTL)
	}
	return u, nil
}
