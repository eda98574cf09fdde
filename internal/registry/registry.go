package registry

import (
	"context"
	"sort"
	"sync"

	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

// Registry is the durable set of subscriber chat IDs.
//
// One mutex guards both the in-memory set and the persist call, so every
// mutation is logically atomic: concurrent readers (a firing broadcast)
// and writers (a /start command) never observe a half-applied state.
type Registry struct {
	mu    sync.Mutex
	set   map[int64]struct{}
	store Store
	log   logx.Logger
}

func New(store Store, log logx.Logger) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{
		set:   map[int64]struct{}{},
		store: store,
		log:   log,
	}
}

// Load replaces the in-memory set with the persisted one.
// Storage trouble is not a startup failure: it logs and starts empty.
func (r *Registry) Load(ctx context.Context) {
	ids, err := r.store.Load(ctx)
	if err != nil {
		r.log.Warn("registry load failed; starting with empty set", logx.Err(err))
		return
	}
	r.mu.Lock()
	r.set = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		r.set[id] = struct{}{}
	}
	n := len(r.set)
	r.mu.Unlock()
	r.log.Info("registry loaded", logx.Int("subscribers", n))
}

// Add registers id. It returns true iff id was absent and the new set was
// persisted. A persist failure rolls the mutation back, so Contains stays
// consistent with durable state.
func (r *Registry) Add(ctx context.Context, id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.set[id]; ok {
		return false
	}
	r.set[id] = struct{}{}
	if err := r.store.Save(ctx, r.snapshotLocked()); err != nil {
		delete(r.set, id)
		r.log.Error("registry persist failed; add rolled back", logx.Int64("chat_id", id), logx.Err(err))
		return false
	}
	r.log.Info("subscriber added", logx.Int64("chat_id", id), logx.Int("subscribers", len(r.set)))
	return true
}

// Remove unregisters id. Same persistence contract as Add.
func (r *Registry) Remove(ctx context.Context, id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.set[id]; !ok {
		return false
	}
	delete(r.set, id)
	if err := r.store.Save(ctx, r.snapshotLocked()); err != nil {
		r.set[id] = struct{}{}
		r.log.Error("registry persist failed; remove rolled back", logx.Int64("chat_id", id), logx.Err(err))
		return false
	}
	r.log.Info("subscriber removed", logx.Int64("chat_id", id), logx.Int("subscribers", len(r.set)))
	return true
}

func (r *Registry) Contains(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.set[id]
	return ok
}

// Snapshot returns the current subscriber IDs, sorted.
func (r *Registry) Snapshot() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.set)
}

func (r *Registry) snapshotLocked() []int64 {
	ids := make([]int64, 0, len(r.set))
	for id := range r.set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
