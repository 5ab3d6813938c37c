package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-webhook-dispatch/core"
)

const endpointCacheKeyPrefix = "go-webhook-dispatch::endpoints::v1"

// CachedEndpointRegistry memoizes active endpoint lists per site. Failed reads
// are never cached.
type CachedEndpointRegistry struct {
	base  core.EndpointRegistry
	cache repositorycache.CacheService
}

func NewCachedEndpointRegistry(
	base core.EndpointRegistry,
	cacheService repositorycache.CacheService,
) (*CachedEndpointRegistry, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base endpoint registry is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: endpoint cache service is required")
	}
	return &CachedEndpointRegistry{base: base, cache: cacheService}, nil
}

// EndpointCacheKey returns go-webhook-dispatch::endpoints::v1::<site_id> with
// the site id URL-path escaped.
func EndpointCacheKey(siteID string) (string, error) {
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		return "", fmt.Errorf("sqlstore: site id is required")
	}
	return endpointCacheKeyPrefix + "::" + url.PathEscape(siteID), nil
}

func (r *CachedEndpointRegistry) ListActiveEndpoints(ctx context.Context, siteID string) ([]core.Endpoint, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached endpoint registry is not configured")
	}
	siteID = strings.TrimSpace(siteID)
	key, err := EndpointCacheKey(siteID)
	if err != nil {
		return nil, err
	}
	endpoints, err := repositorycache.GetOrFetch(ctx, r.cache, key, func(ctx context.Context) ([]core.Endpoint, error) {
		fetched, fetchErr := r.base.ListActiveEndpoints(ctx, siteID)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return cloneEndpoints(fetched), nil
	})
	if err != nil {
		return nil, err
	}
	return cloneEndpoints(endpoints), nil
}

// Invalidate drops the cached list for a site after its endpoints change.
func (r *CachedEndpointRegistry) Invalidate(ctx context.Context, siteID string) error {
	if r == nil || r.cache == nil {
		return fmt.Errorf("sqlstore: cached endpoint registry is not configured")
	}
	key, err := EndpointCacheKey(siteID)
	if err != nil {
		return err
	}
	return r.cache.Delete(ctx, key)
}

func cloneEndpoints(in []core.Endpoint) []core.Endpoint {
	out := make([]core.Endpoint, 0, len(in))
	for _, endpoint := range in {
		endpoint.Secret = cloneString(endpoint.Secret)
		out = append(out, endpoint)
	}
	return out
}
