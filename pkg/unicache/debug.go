package unicache

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

const expiredTTL = "expired"

// DebugResponse represents the JSON response structure for debug endpoints
type DebugResponse struct {
	Stats *DebugStats         `json:"stats"`
	Keys  []DebugKey          `json:"keys,omitempty"`
	Tags  map[string][]string `json:"tags,omitempty"`
}

// DebugStats represents cache statistics in the debug response
type DebugStats struct {
	StatsSnapshot
	Config *DebugConfig `json:"config"`
}

// DebugConfig represents cache configuration in the debug response
type DebugConfig struct {
	Name            string        `json:"name,omitempty"`
	MaxEntries      int           `json:"max_entries"`
	DefaultTTL      time.Duration `json:"default_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
	Eviction        string        `json:"eviction"`
}

// DebugKey represents a cache key with its metadata
type DebugKey struct {
	Key         string    `json:"key"`
	Value       any       `json:"value,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Age         string    `json:"age"`
	Remaining   string    `json:"remaining,omitempty"`
	AccessCount int64     `json:"access_count"`
	LastAccess  time.Time `json:"last_access"`
	Tags        []string  `json:"tags,omitempty"`
}

// DebugHandler returns an HTTP handler that provides cache debug information
// The handler supports the following endpoints:
//   - GET /stats - Returns only cache statistics (no keys)
//   - GET /keys - Returns statistics and all cache keys with metadata
//   - GET /tags - Returns statistics and the tag index
//   - GET / - Returns statistics and all cache keys with metadata (same as /keys)
func (c *Cache) DebugHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		var response DebugResponse
		includeKeys := r.URL.Path == "/" || r.URL.Path == "/keys"
		includeTags := r.URL.Path == "/tags"

		response.Stats = &DebugStats{
			StatsSnapshot: c.Stats(),
			Config: &DebugConfig{
				Name:            c.config.Name,
				MaxEntries:      c.config.MaxEntries,
				DefaultTTL:      c.config.DefaultTTL,
				CleanupInterval: c.config.CleanupInterval,
				Eviction:        string(c.config.Eviction),
			},
		}

		if includeKeys {
			c.lock(func() {
				now := time.Now()
				keys := c.store.Keys()
				sort.Strings(keys)

				response.Keys = make([]DebugKey, 0, len(keys))
				for _, key := range keys {
					e, found := c.store.Get(key)
					if !found {
						continue
					}

					debugKey := DebugKey{
						Key:         key,
						Value:       e.Value,
						CreatedAt:   e.CreatedAt,
						Age:         formatDuration(e.Age(now)),
						AccessCount: e.AccessCount,
						LastAccess:  e.LastAccess,
						Tags:        e.TagList(),
					}

					if e.TTL > 0 {
						if e.Expired(now) {
							debugKey.Remaining = expiredTTL
						} else {
							debugKey.Remaining = formatDuration(e.Remaining(now))
						}
					}

					response.Keys = append(response.Keys, debugKey)
				}
			})
		}

		if includeTags {
			c.lock(func() {
				tags := c.store.Tags()
				response.Tags = make(map[string][]string, len(tags))
				for _, tag := range tags {
					response.Tags[tag] = c.store.TagKeys(tag)
				}
			})
		}

		// Write JSON response
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
		}
	})
}

// NewDebugServer creates a new HTTP server with cache debug endpoints
// The server serves on the following routes:
//   - GET /stats - Cache statistics only
//   - GET /keys - Cache statistics and keys
//   - GET /tags - Cache statistics and the tag index
//   - GET / - Cache statistics and keys (default)
func (c *Cache) NewDebugServer(addr string) *http.Server {
	mux := http.NewServeMux()
	handler := c.DebugHandler()

	mux.Handle("/stats", handler)
	mux.Handle("/keys", handler)
	mux.Handle("/tags", handler)
	mux.Handle("/", handler)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// formatDuration formats a duration in a human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Microsecond {
		return d.String()
	}
	if d < time.Millisecond {
		return d.Truncate(time.Microsecond).String()
	}
	if d < time.Second {
		return d.Truncate(time.Millisecond).String()
	}
	if d < time.Minute {
		return d.Truncate(time.Second).String()
	}
	if d < time.Hour {
		return d.Truncate(time.Minute).String()
	}
	return d.Truncate(time.Hour).String()
}
