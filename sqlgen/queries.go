package sqlgen

import (
	"sort"
	"sync"
)

// TablePlaceholder is replaced with the table name in custom query templates.
const TablePlaceholder = "this.tableName"

// Query is a custom SQL template and the ordered names of the entity fields
// bound to its placeholders.
type Query struct {
	SQL    string
	Params []string
}

// Queries is a registry of custom queries keyed by name. Queries are usually
// registered at setup and looked up by the key a DAO method passes. It is
// safe for concurrent use.
type Queries struct {
	mu sync.RWMutex
	m  map[string]Query
}

// NewQueries returns an empty registry.
func NewQueries() *Queries {
	return &Queries{m: make(map[string]Query)}
}

// Register binds a query to key, replacing any previous binding.
//
//	qs.Register("adults", sqlgen.Query{
//		SQL:    "SELECT * FROM this.tableName WHERE age>=?",
//		Params: []string{"Age"},
//	})
func (q *Queries) Register(key string, query Query) *Queries {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.m == nil {
		q.m = make(map[string]Query)
	}
	q.m[key] = query
	return q
}

// Lookup returns the query bound to key.
func (q *Queries) Lookup(key string) (Query, bool) {
	if q == nil {
		return Query{}, false
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	query, ok := q.m[key]
	return query, ok
}

// Keys returns the registered keys in sorted order.
func (q *Queries) Keys() []string {
	if q == nil {
		return nil
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	keys := make([]string, 0, len(q.m))
	for k := range q.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
