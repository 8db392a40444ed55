package pipeline

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry holds the running pipeline of every configured chain. The health
// endpoint reads it; Run drives all pipelines together.
type Registry struct {
	mu        sync.RWMutex
	pipelines map[int64]*Pipeline
}

func NewRegistry() *Registry {
	return &Registry{pipelines: make(map[int64]*Pipeline)}
}

// Register adds a pipeline, replacing any previous one for the same chain.
func (r *Registry) Register(p *Pipeline) {
	r.mu.Lock()
	r.pipelines[p.ChainID()] = p
	r.mu.Unlock()
}

// Get returns the pipeline for chainID, or nil if not registered.
func (r *Registry) Get(chainID int64) *Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pipelines[chainID]
}

func (r *Registry) list() []*Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Pipeline, 0, len(r.pipelines))
	for _, p := range r.pipelines {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Pipeline) int {
		switch {
		case a.ChainID() < b.ChainID():
			return -1
		case a.ChainID() > b.ChainID():
			return 1
		}
		return 0
	})
	return out
}

// Snapshots returns the health of every pipeline ordered by chain id.
func (r *Registry) Snapshots() []HealthSnapshot {
	pipelines := r.list()
	out := make([]HealthSnapshot, 0, len(pipelines))
	for _, p := range pipelines {
		out = append(out, p.Health().Snapshot())
	}
	return out
}

// Run starts every registered pipeline and waits for all of them. Chains are
// independent; one failing pipeline cancels the rest.
func (r *Registry) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, p := range r.list() {
		g.Go(func() error {
			return p.Run(gCtx)
		})
	}
	return g.Wait()
}
