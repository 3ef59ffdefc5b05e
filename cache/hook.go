package cache

import "reflect"

// HookPos names the place in the cache where a hook is invoked.
type HookPos struct {
	Name string
}

// HookPosAccess is triggered after every simulated memory reference. The
// detail is an AccessDetail.
var HookPosAccess = &HookPos{Name: "Access"}

// HookPosEviction is triggered when a valid line is replaced. The detail is
// an EvictionDetail.
var HookPosEviction = &HookPos{Name: "Eviction"}

// HookPosSkip is triggered for records that are not memory references. The
// detail is a SkipDetail.
var HookPosSkip = &HookPos{Name: "Skip"}

// HookCtx carries the information about the site that triggered a hook.
type HookCtx struct {
	Domain *Cache
	Pos    *HookPos
	Detail any
}

// A Hook observes the cache. Hooks must not mutate the cache they observe.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// AccessDetail describes one memory reference.
type AccessDetail struct {
	Opcode  Opcode
	Address uint32
	Decoded Address
	Hit     bool
	Way     int
}

// EvictionDetail describes a line being replaced.
type EvictionDetail struct {
	SetIndex uint32
	Way      int
	Evicted  Line
	Incoming uint32
}

// HookableBase keeps the hooks registered to an object.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mustNotHaveDuplicatedHook(hook)
	h.hooks = append(h.hooks, hook)
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// InvokeHook calls all the hooks in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}

func (h *HookableBase) mustNotHaveDuplicatedHook(hook Hook) {
	if !reflect.TypeOf(hook).Comparable() {
		return
	}

	for _, registered := range h.hooks {
		if registered == hook {
			panic("duplicated hook")
		}
	}
}

// SkipDetail describes a record that did not reference memory.
type SkipDetail struct {
	Opcode  Opcode
	Address uint32
}
