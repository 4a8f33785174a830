// env.go: lexical scopes as an arena of frames.
//
// Frames are addressed by index into the arena, with a parent index rather
// than a pointer, so closures (which capture a frame index) never form
// ownership cycles. Lookups walk parent indices outward until the name is
// found or the chain ends at the root. The arena is guarded by a RWMutex
// because timer callbacks and screen worker goroutines share the global
// frame with the main script thread.
package ebscript

import (
	"strings"
	"sync"
)

type slot struct {
	typ *TypeSpec // nil for untyped bindings (functions, foreach vars)
	val Value
}

type frame struct {
	parent int // -1 for the root frame
	vars   map[string]*slot
}

// Env is the arena of scope frames for one Runtime.
type Env struct {
	mu     sync.RWMutex
	frames []*frame
}

// NewEnv returns an arena containing only the root frame (index 0).
func NewEnv() *Env {
	return &Env{frames: []*frame{{parent: -1, vars: make(map[string]*slot)}}}
}

// Push appends a new frame whose parent is the given index and returns the
// new frame's index.
func (e *Env) Push(parent int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames = append(e.frames, &frame{parent: parent, vars: make(map[string]*slot)})
	return len(e.frames) - 1
}

// Pop releases the frame at idx when it is the newest frame and nothing
// has captured it. Frames captured by closures simply stay in the arena.
func (e *Env) Pop(idx int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx == len(e.frames)-1 && idx > 0 {
		e.frames = e.frames[:idx]
	}
}

// Define binds name in the given frame, shadowing any outer binding.
func (e *Env) Define(frameIdx int, name string, typ *TypeSpec, v Value) {
	name = strings.ToLower(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames[frameIdx].vars[name] = &slot{typ: typ, val: v}
}

// DefineIfAbsent binds name in the given frame only when it is not already
// bound there; reports whether the binding was created. Imported functions
// register no-overwrite through this.
func (e *Env) DefineIfAbsent(frameIdx int, name string, typ *TypeSpec, v Value) bool {
	name = strings.ToLower(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.frames[frameIdx].vars[name]; ok {
		return false
	}
	e.frames[frameIdx].vars[name] = &slot{typ: typ, val: v}
	return true
}

// Lookup walks the parent chain from frameIdx and returns the value bound
// to name.
func (e *Env) Lookup(frameIdx int, name string) (Value, bool) {
	name = strings.ToLower(name)
	e.mu.RLock()
	defer e.mu.RUnlock()
	for i := frameIdx; i >= 0; {
		f := e.frames[i]
		if s, ok := f.vars[name]; ok {
			return s.val, true
		}
		i = f.parent
	}
	return Null, false
}

// Assign stores v into the nearest binding of name, coercing against the
// slot's declared type. Fails with UndefinedNameError when no frame in the
// chain binds the name.
func (e *Env) Assign(frameIdx int, name string, v Value) error {
	name = strings.ToLower(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := frameIdx; i >= 0; {
		f := e.frames[i]
		if s, ok := f.vars[name]; ok {
			cv, err := coerceToType(v, s.typ)
			if err != nil {
				return err
			}
			s.val = cv
			return nil
		}
		i = f.parent
	}
	return &UndefinedNameError{Name: name}
}

// DeclaredType returns the declared type of the nearest binding, if any.
func (e *Env) DeclaredType(frameIdx int, name string) (*TypeSpec, bool) {
	name = strings.ToLower(name)
	e.mu.RLock()
	defer e.mu.RUnlock()
	for i := frameIdx; i >= 0; {
		f := e.frames[i]
		if s, ok := f.vars[name]; ok {
			return s.typ, true
		}
		i = f.parent
	}
	return nil, false
}

// Names returns the names bound directly in one frame, for debug listings.
func (e *Env) Names(frameIdx int) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.frames[frameIdx].vars))
	for n := range e.frames[frameIdx].vars {
		out = append(out, n)
	}
	return out
}
