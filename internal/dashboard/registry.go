// internal/dashboard/registry.go
//
// Tables exposed to the management dashboard.
//
// Context
//   The management handler knows tables only by name.  Each entry maps a
//   table onto the entity factory that reads and writes it, the validation
//   rules applied to submitted data, and optional deletion hooks that run in
//   the same transaction as the row delete (account → remove role grants).
//
//   The registry is keyed by the entity's table name, never its Go type
//   name, and a later registration for the same table replaces the earlier
//   one.
//
//------------------------------------------------------------------------------

package dashboard

import (
	"context"
	"sort"
	"sync"

	"github.com/yanizio/peneus/internal/apperr"
	"github.com/yanizio/peneus/internal/entity"
)

// Rules maps a column name onto go-playground/validator tags, for example
// {"email": "required,email"}.
type Rules map[string]string

// DeletionHook runs before e is deleted, on the same transaction-bound
// store.  A non-nil error aborts and rolls back the delete.
type DeletionHook func(ctx context.Context, st *entity.Store, e entity.Entity) error

type entry struct {
	factory entity.Factory
	rules   Rules
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	hooks   map[string][]DeletionHook
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
		hooks:   make(map[string][]DeletionHook),
	}
}

// Register exposes the table produced by factory.
func (r *Registry) Register(factory entity.Factory, rules Rules) error {
	if factory == nil {
		return apperr.InvalidArgument("Entity factory is nil.")
	}
	e := factory()
	if e == nil {
		return apperr.InvalidArgument("Entity factory produced nil.")
	}
	table := entity.Table(e)

	r.mu.Lock()
	r.entries[table] = entry{factory: factory, rules: rules}
	r.mu.Unlock()
	return nil
}

// EntityFor returns the factory registered for table, or nil.
func (r *Registry) EntityFor(table string) entity.Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[table].factory
}

// RulesFor returns the rules registered for table, or nil.
func (r *Registry) RulesFor(table string) Rules {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[table].rules
}

// Tables lists registered tables in order.
func (r *Registry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// OnDelete appends hook to table's deletion hooks.
func (r *Registry) OnDelete(table string, hook DeletionHook) {
	if hook == nil {
		return
	}
	r.mu.Lock()
	r.hooks[table] = append(r.hooks[table], hook)
	r.mu.Unlock()
}

// DeletionHookFor returns a hook running every hook of table in
// registration order, or nil when there are none.
func (r *Registry) DeletionHookFor(table string) DeletionHook {
	r.mu.RLock()
	hooks := append([]DeletionHook(nil), r.hooks[table]...)
	r.mu.RUnlock()
	if len(hooks) == 0 {
		return nil
	}
	return func(ctx context.Context, st *entity.Store, e entity.Entity) error {
		for _, h := range hooks {
			if err := h(ctx, st, e); err != nil {
				return err
			}
		}
		return nil
	}
}
