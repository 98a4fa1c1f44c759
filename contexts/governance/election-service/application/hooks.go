package application

import (
	"context"
	"sync"

	"coopvote/contexts/governance/election-service/domain/entities"
)

// TransitionHook is invoked once per genuine status transition. Surrounding
// components (announcement composer, audit log) register against it.
type TransitionHook func(ctx context.Context, electionID string, from entities.ElectionStatus, to entities.ElectionStatus)

// TransitionHooks fans a successful transition out to registered hooks. The
// exactly-once guarantee comes from firing only on the winning branch of the
// conditional status update, never from the registry itself.
type TransitionHooks struct {
	mu    sync.RWMutex
	hooks []TransitionHook
}

func (h *TransitionHooks) Subscribe(hook TransitionHook) {
	if hook == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

func (h *TransitionHooks) Fire(ctx context.Context, electionID string, from entities.ElectionStatus, to entities.ElectionStatus) {
	h.mu.RLock()
	hooks := append([]TransitionHook(nil), h.hooks...)
	h.mu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, electionID, from, to)
	}
}
