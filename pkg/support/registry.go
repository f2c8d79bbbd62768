// Package support implements the support-name registry (C4): on-demand
// allocation of names for every synthesized helper the control driver and
// preamble emitter might need — the seeking variable, the active-frame
// bitmask, the two "maybe-not-empty" iterator wrappers, and the
// short-circuit or/and helpers (SPEC_FULL.md §4.5).
package support

import "github.com/mikesamuel/comehere/pkg/namepool"

// slot is a single-assignment name: empty until first requested, then
// fixed for the lifetime of the Registry.
type slot struct {
	name string
	set  bool
}

func (s *slot) get(pool *namepool.Pool, prefix string) string {
	if !s.set {
		s.name = pool.Fresh(prefix)
		s.set = true
	}
	return s.name
}

// Registry hands out the preamble's helper names lazily: a module that
// never needs maybeNotEmptyIterator never pays for (or emits) it.
type Registry struct {
	pool *namepool.Pool

	seek             slot
	activeMask       slot
	valueIterator    slot
	keyIterator      slot
	orHelper         slot
	andHelper        slot
}

func NewRegistry(pool *namepool.Pool) *Registry {
	return &Registry{pool: pool}
}

// Seek returns the name of the module-scoped seeking variable (§4.5),
// allocating it on first use.
func (r *Registry) Seek() string { return r.seek.get(r.pool, "seek") }

// SeekRequested reports whether Seek has been allocated, so the preamble
// emitter can skip declarations nothing references (§4.5 "only if
// referenced").
func (r *Registry) SeekRequested() bool { return r.seek.set }

// ActiveMask returns the name of the module-scoped active-frame bitmask
// (§4.4.1), allocating it on first use.
func (r *Registry) ActiveMask() string { return r.activeMask.get(r.pool, "activeMask") }

func (r *Registry) ActiveMaskRequested() bool { return r.activeMask.set }

// ValueIterator returns the name of the maybeNotEmptyIterator helper
// (§4.4.2 "Iterate-over-values").
func (r *Registry) ValueIterator() string { return r.valueIterator.get(r.pool, "maybeNotEmptyIterator") }

func (r *Registry) ValueIteratorRequested() bool { return r.valueIterator.set }

// KeyIterator returns the name of the maybeNotEmptyKeyIterator helper
// (§4.4.2 "Iterate-over-keys").
func (r *Registry) KeyIterator() string { return r.keyIterator.get(r.pool, "maybeNotEmptyKeyIterator") }

func (r *Registry) KeyIteratorRequested() bool { return r.keyIterator.set }

// OrHelper returns the name of the short-circuit `||` helper (§4.4.2).
func (r *Registry) OrHelper() string { return r.orHelper.get(r.pool, "or") }

func (r *Registry) OrHelperRequested() bool { return r.orHelper.set }

// AndHelper returns the name of the short-circuit `&&` helper (§4.4.2).
func (r *Registry) AndHelper() string { return r.andHelper.get(r.pool, "and") }

func (r *Registry) AndHelperRequested() bool { return r.andHelper.set }

// FreshBit allocates the next active-frame bit index (§4.4.1), from the
// same pool counter as every other synthesized name.
func (r *Registry) FreshBit() int { return r.pool.FreshBit() }

// Fresh allocates an arbitrary helper name with the given prefix — used by
// the control driver for per-goal locals (snapshot/sentinel names, the
// returned-value capture in §4.2, constructed receivers in §4.4.3).
func (r *Registry) Fresh(prefix string) string { return r.pool.Fresh(prefix) }
