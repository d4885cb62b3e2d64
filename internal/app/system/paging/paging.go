// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size when the client does not send ?limit.
const DefaultLimit = 20

// MaxLimit caps ?limit so a single request cannot pull a whole collection.
const MaxLimit = 100

// Page is a parsed limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

// Parse reads ?limit and ?offset. Missing or invalid values fall back to
// DefaultLimit and 0; limit is clamped to [1, MaxLimit].
func Parse(r *http.Request) Page {
	return Page{
		Limit:  clamp(atoi(query.Get(r, "limit"), DefaultLimit), 1, MaxLimit),
		Offset: max(atoi(query.Get(r, "offset"), 0), 0),
	}
}

// FetchLimit is Limit+1 as int64 for look-ahead pagination
// (fetch one extra document to detect HasMore).
func (p Page) FetchLimit() int64 { return int64(p.Limit + 1) }

// Skip is Offset as int64 for Find().SetSkip.
func (p Page) Skip() int64 { return int64(p.Offset) }

// List is the JSON envelope for paged responses.
type List[T any] struct {
	Items   []T  `json:"items"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// Trim builds a List from rows fetched with FetchLimit, dropping the
// look-ahead row. Items is never nil so it encodes as [].
func Trim[T any](rows []T, p Page) List[T] {
	out := List[T]{Limit: p.Limit, Offset: p.Offset}
	if len(rows) > p.Limit {
		rows = rows[:p.Limit]
		out.HasMore = true
	}
	if rows == nil {
		rows = []T{}
	}
	out.Items = rows
	return out
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
