package device

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrDeviceExists = errors.New("device: already registered")
	ErrDeviceNil    = errors.New("device: source is nil")
	ErrInvalidID    = errors.New("device: invalid id")
)

// Registry stores sources by id. GetOrCreate memoizes construction so one
// physical device maps to exactly one adapter.
type Registry struct {
	mu    sync.Mutex
	items map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Source)}
}

func (r *Registry) Register(src Source) error {
	if src == nil {
		return ErrDeviceNil
	}
	id := strings.TrimSpace(src.ID())
	if id == "" {
		return ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; ok {
		return fmt.Errorf("%w: %s", ErrDeviceExists, id)
	}
	r.items[id] = src
	return nil
}

func (r *Registry) Resolve(id string) (Source, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.items[id]
	return src, ok
}

// GetOrCreate returns the source registered under id, building and
// registering it on first use.
func (r *Registry) GetOrCreate(id string, build func() (Source, error)) (Source, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if src, ok := r.items[id]; ok {
		return src, nil
	}
	src, err := build()
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrDeviceNil
	}
	r.items[id] = src
	return src, nil
}

// List returns sources in id order so polling order is deterministic.
func (r *Registry) List() []Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	list := make([]Source, 0, len(ids))
	for _, id := range ids {
		list = append(list, r.items[id])
	}
	return list
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
