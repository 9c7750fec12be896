package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/casdy/PlanR-sub000/internal/domain"
)

// Catalog looks up exercise summaries by target muscle or body part. It is
// a read-only remote collaborator: results are cacheable, never persisted,
// and callers must expect the lookup to fail.
type Catalog interface {
	Search(ctx context.Context, target string) ([]domain.CatalogExercise, error)
}

const defaultTimeout = 15 * time.Second

type httpCatalog struct {
	baseURL string
	client  *http.Client
	cache   *searchCache
}

// NewHTTPCatalog returns a Catalog backed by the exercise catalog service.
// Searches are cached per normalized target for cacheTTL; a TTL of zero
// disables caching.
func NewHTTPCatalog(baseURL string, cacheTTL time.Duration) Catalog {
	return &httpCatalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		cache:   newSearchCache(cacheTTL),
	}
}

func (c *httpCatalog) Search(ctx context.Context, target string) ([]domain.CatalogExercise, error) {
	key := strings.ToLower(strings.TrimSpace(target))
	if hit, ok := c.cache.get(key); ok {
		return hit, nil
	}

	endpoint := fmt.Sprintf("%s/exercises?target=%s", c.baseURL, url.QueryEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog search %q: %w", key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("catalog search %q: %s", key, resp.Status)
	}

	var exercises []domain.CatalogExercise
	if err := json.Unmarshal(body, &exercises); err != nil {
		return nil, fmt.Errorf("catalog search %q: decode: %w", key, err)
	}
	c.cache.put(key, exercises)
	return exercises, nil
}

// searchCache is a mutex-guarded TTL cache of search results. Entries are
// evicted lazily on lookup; the working set (distinct muscle targets) is
// small enough that no background sweeper is needed.
type searchCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	exercises []domain.CatalogExercise
	expires   time.Time
}

func newSearchCache(ttl time.Duration) *searchCache {
	return &searchCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *searchCache) get(key string) ([]domain.CatalogExercise, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.exercises, true
}

func (c *searchCache) put(key string, exercises []domain.CatalogExercise) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{exercises: exercises, expires: time.Now().Add(c.ttl)}
}
