// Package crawler walks seed URLs and the links behind them through a
// fetcher, drawing a fresh request identity for every page.
package crawler

import (
	"net/url"
	"strings"
	"sync"
)

// URLQueue is a FIFO of pending URLs with visited-set deduplication.
// Safe for concurrent use.
type URLQueue struct {
	mu      sync.Mutex
	pending []queueItem
	visited map[string]struct{}
}

type queueItem struct {
	url   string
	depth int
}

// NewURLQueue creates an empty queue.
func NewURLQueue() *URLQueue {
	return &URLQueue{visited: make(map[string]struct{})}
}

// Add queues a URL at the given depth unless it was seen before.
// Reports whether the URL was accepted.
func (q *URLQueue) Add(rawURL string, depth int) bool {
	normalized := normalizeURL(rawURL)
	if normalized == "" {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, seen := q.visited[normalized]; seen {
		return false
	}
	q.visited[normalized] = struct{}{}
	q.pending = append(q.pending, queueItem{url: normalized, depth: depth})
	return true
}

// Pop removes and returns the oldest queued URL.
func (q *URLQueue) Pop() (string, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return "", 0, false
	}
	item := q.pending[0]
	q.pending = q.pending[1:]
	return item.url, item.depth, true
}

// Len returns the number of queued URLs.
func (q *URLQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// IsVisited reports whether a URL was queued before.
func (q *URLQueue) IsVisited(rawURL string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, seen := q.visited[normalizeURL(rawURL)]
	return seen
}

// MarkVisited records a URL as seen without queueing it.
func (q *URLQueue) MarkVisited(rawURL string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.visited[normalizeURL(rawURL)] = struct{}{}
}

// normalizeURL canonicalizes a URL for deduplication: lowercased host,
// fragment dropped, trailing slash trimmed from non-root paths. Returns ""
// for unparseable input.
func normalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	if len(parsed.Path) > 1 {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String()
}

// IsSameDomain reports whether two URLs share a host. Hosts compare
// case-insensitively; a differing explicit port is a different host.
func IsSameDomain(url1, url2 string) bool {
	parsed1, err := url.Parse(url1)
	if err != nil {
		return false
	}
	parsed2, err := url.Parse(url2)
	if err != nil {
		return false
	}
	if parsed1.Host == "" || parsed2.Host == "" {
		return false
	}
	return strings.EqualFold(parsed1.Host, parsed2.Host)
}
