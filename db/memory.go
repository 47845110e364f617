package db

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// memoryStore keeps documents as JSON so that filters and updates see the
// same field names the json tags declare. Models tag json and firestore
// identically.
type memoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: make(map[string]map[string][]byte)}
}

type memoryCollection[T any] struct {
	name  string
	store *memoryStore
}

func (c *memoryCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var doc T
	c.store.mu.RLock()
	raw, ok := c.store.docs[c.name][id]
	c.store.mu.RUnlock()
	if !ok {
		return doc, ErrNotFound
	}
	err := json.Unmarshal(raw, &doc)
	return doc, errors.Wrapf(err, "decode %s/%s", c.name, id)
}

func (c *memoryCollection[T]) List(ctx context.Context, q Query) ([]T, error) {
	c.store.mu.RLock()
	type row struct {
		fields map[string]any
		raw    []byte
	}
	var rows []row
	for _, raw := range c.store.docs[c.name] {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			c.store.mu.RUnlock()
			return nil, errors.Wrapf(err, "decode %s", c.name)
		}
		if matchAll(fields, q.Filters) {
			rows = append(rows, row{fields: fields, raw: raw})
		}
	}
	c.store.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			cmp := compare(lookup(rows[i].fields, q.OrderBy), lookup(rows[j].fields, q.OrderBy))
			if q.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	} else {
		sort.SliceStable(rows, func(i, j int) bool {
			return fmt.Sprint(rows[i].fields["id"]) < fmt.Sprint(rows[j].fields["id"])
		})
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]T, 0, len(rows))
	for _, r := range rows {
		var doc T
		if err := json.Unmarshal(r.raw, &doc); err != nil {
			return nil, errors.Wrapf(err, "decode %s", c.name)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *memoryCollection[T]) Set(ctx context.Context, id string, doc T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "encode %s/%s", c.name, id)
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.docs[c.name] == nil {
		c.store.docs[c.name] = make(map[string][]byte)
	}
	c.store.docs[c.name][id] = raw
	return nil
}

func (c *memoryCollection[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	raw, ok := c.store.docs[c.name][id]
	if !ok {
		return ErrNotFound
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.Wrapf(err, "decode %s/%s", c.name, id)
	}
	for path, value := range fields {
		// Round-trip through JSON so typed values land the way Set would
		// have stored them.
		encoded, err := json.Marshal(value)
		if err != nil {
			return errors.Wrapf(err, "encode %s", path)
		}
		var plain any
		_ = json.Unmarshal(encoded, &plain)
		assign(doc, path, plain)
	}
	updated, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "encode %s/%s", c.name, id)
	}
	c.store.docs[c.name][id] = updated
	return nil
}

func (c *memoryCollection[T]) Delete(ctx context.Context, id string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	delete(c.store.docs[c.name], id)
	return nil
}

func lookup(fields map[string]any, path string) any {
	var cur any = fields
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func assign(fields map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := fields
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func matchAll(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !match(lookup(fields, f.Field), f) {
			return false
		}
	}
	return true
}

func match(got any, f Filter) bool {
	want := normalize(f.Value)
	switch f.Op {
	case OpEqual:
		return compare(got, want) == 0 && got != nil
	case OpNotEqual:
		return compare(got, want) != 0
	case OpLess:
		return got != nil && compare(got, want) < 0
	case OpLessEqual:
		return got != nil && compare(got, want) <= 0
	case OpGreater:
		return got != nil && compare(got, want) > 0
	case OpGreaterEqual:
		return got != nil && compare(got, want) >= 0
	case OpIn:
		list, ok := want.([]any)
		if !ok {
			return false
		}
		for _, v := range list {
			if compare(got, v) == 0 {
				return true
			}
		}
	}
	return false
}

// normalize converts a Go filter value into the shape encoding/json
// produces when decoding into any.
func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// compare orders nil < bool < number < string, then by value.
func compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return strings.Compare(av, b.(string))
	case nil:
		return 0
	}
	if reflect.DeepEqual(a, b) {
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	}
	return 4
}
