// screens.go: named screen contexts and the rendering-collaborator
// boundary.
//
// The core never draws anything. A screen is a declarative JSON definition
// handed to the ScreenHost plus: a thread-safe variable store, and one
// long-lived worker goroutine that runs the screen's startup code, event
// handlers, and cleanup code strictly in order. The worker is created on
// first show and exits when the host reports the window closed, at which
// point the variable store and all timers started by the screen are torn
// down.
//
// Startup and cleanup code live in the definition object under "startup"
// and "cleanup" (source-code strings); event handlers are resolved first
// from the definition's "events" object keyed "item.eventType", then by a
// global function named item_eventType.
package ebscript

import (
	"strings"
	"sync"
)

// ScreenHost is the external rendering collaborator. Implementations own
// widgets and windows; the core only notifies them of lifecycle changes
// and receives NotifyEvent/NotifyClosed calls back through the Runtime.
type ScreenHost interface {
	ShowScreen(name string, def interface{}) error
	HideScreen(name string) error
	CloseScreen(name string) error
}

// screenCtx is the core-side state for one named screen.
type screenCtx struct {
	name string
	def  interface{} // decoded JSON definition

	varMu sync.RWMutex
	vars  map[string]Value

	work    chan func()
	done    chan struct{}
	started bool
}

// ScreenManager owns every screen context of one Runtime.
type ScreenManager struct {
	rt   *Runtime
	host ScreenHost

	mu      sync.Mutex
	screens map[string]*screenCtx
}

func newScreenManager(rt *Runtime) *ScreenManager {
	return &ScreenManager{rt: rt, screens: make(map[string]*screenCtx)}
}

func (m *ScreenManager) get(name string) *screenCtx {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screens[strings.ToLower(name)]
}

// Define registers (or replaces) a screen definition. The variable store
// is created here; the worker waits for the first Show.
func (m *ScreenManager) Define(name string, def Value) error {
	key := strings.ToLower(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if sc, ok := m.screens[key]; ok {
		sc.def = def.Data
		return nil
	}
	m.screens[key] = &screenCtx{
		name: key,
		def:  def.Data,
		vars: make(map[string]Value),
		work: make(chan func(), 64),
		done: make(chan struct{}),
	}
	return nil
}

// Show starts the screen's worker goroutine (first show only), runs its
// startup code there, and tells the host to render.
func (m *ScreenManager) Show(name string) error {
	sc := m.get(name)
	if sc == nil {
		return rtErrf(NotFoundError, "", "screen %q is not defined", name)
	}
	m.mu.Lock()
	first := !sc.started
	if first {
		sc.started = true
	}
	m.mu.Unlock()
	if first {
		go m.worker(sc)
		if code := m.defString(sc, "startup"); code != "" {
			m.enqueue(sc, func() { m.runCode(sc, code) })
		}
	}
	if m.host != nil {
		return m.host.ShowScreen(sc.name, sc.def)
	}
	return nil
}

// Hide tells the host to hide the window; the context stays alive.
func (m *ScreenManager) Hide(name string) error {
	sc := m.get(name)
	if sc == nil {
		return rtErrf(NotFoundError, "", "screen %q is not defined", name)
	}
	if m.host != nil {
		return m.host.HideScreen(sc.name)
	}
	return nil
}

// Close asks the host to close the window. Teardown happens when the host
// confirms through NotifyClosed; with no host attached, Close tears down
// directly.
func (m *ScreenManager) Close(name string) error {
	sc := m.get(name)
	if sc == nil {
		return rtErrf(NotFoundError, "", "screen %q is not defined", name)
	}
	if m.host != nil {
		return m.host.CloseScreen(sc.name)
	}
	m.NotifyClosed(sc.name)
	return nil
}

// worker drains the screen's queue until teardown. All script execution
// for one screen is serialized here.
func (m *ScreenManager) worker(sc *screenCtx) {
	for {
		select {
		case fn := <-sc.work:
			fn()
		case <-sc.done:
			// drain anything already queued, then exit
			for {
				select {
				case fn := <-sc.work:
					fn()
				default:
					return
				}
			}
		}
	}
}

func (m *ScreenManager) enqueue(sc *screenCtx, fn func()) error {
	select {
	case <-sc.done:
		return rtErrf(NotFoundError, "", "screen %q is closed", sc.name)
	default:
	}
	select {
	case sc.work <- fn:
		return nil
	case <-sc.done:
		return rtErrf(NotFoundError, "", "screen %q is closed", sc.name)
	}
}

// runCode executes source text with the screen as current context. An
// uncaught error is logged and leaves the screen open.
func (m *ScreenManager) runCode(sc *screenCtx, src string) {
	prog, err := m.rt.Parse(src, "<screen "+sc.name+">")
	if err != nil {
		m.rt.logger.Error("screen code failed to parse", "screen", sc.name, "err", err)
		return
	}
	ip := &Interp{rt: m.rt, frame: 0, screen: sc.name, prog: prog.Name}
	if _, err := ip.execStmts(prog.Stmts); err != nil {
		m.rt.logger.Error("screen code failed", "screen", sc.name, "err", err)
	}
}

// RunOn queues source code for the screen's worker.
func (m *ScreenManager) RunOn(name, src string) error {
	sc := m.get(name)
	if sc == nil {
		return rtErrf(NotFoundError, "", "screen %q is not defined", name)
	}
	if !sc.started {
		return rtErrf(ValidationError, "", "screen %q has not been shown", name)
	}
	return m.enqueue(sc, func() { m.runCode(sc, src) })
}

// RunFunc queues an arbitrary closure on the screen's worker (used by the
// timer manager to serialize screen-owned callbacks).
func (m *ScreenManager) RunFunc(name string, fn func()) error {
	sc := m.get(name)
	if sc == nil || !sc.started {
		return rtErrf(NotFoundError, "", "screen %q is not running", name)
	}
	return m.enqueue(sc, fn)
}

// NotifyEvent turns a host widget event into a handler invocation on the
// screen's worker. Unknown screens and unhandled events are ignored: the
// host may deliver stale events after a close.
func (m *ScreenManager) NotifyEvent(name, item, eventType string) {
	sc := m.get(name)
	if sc == nil || !sc.started {
		return
	}
	item = strings.ToLower(item)
	eventType = strings.ToLower(eventType)
	if code := m.eventCode(sc, item+"."+eventType); code != "" {
		_ = m.enqueue(sc, func() { m.runCode(sc, code) })
		return
	}
	handler := item + "_" + eventType
	if fv, ok := m.rt.env.Lookup(0, handler); ok && fv.Kind == KindFunc {
		_ = m.enqueue(sc, func() {
			if err := m.rt.callFunctionByName(handler, sc.name); err != nil {
				m.rt.logger.Error("event handler failed",
					"screen", sc.name, "handler", handler, "err", err)
			}
		})
	}
}

// NotifyClosed runs the screen's cleanup code, stops its timers, and tears
// the context down. Safe to call for unknown names.
func (m *ScreenManager) NotifyClosed(name string) {
	key := strings.ToLower(name)
	m.mu.Lock()
	sc, ok := m.screens[key]
	if ok {
		delete(m.screens, key)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	if sc.started {
		if code := m.defString(sc, "cleanup"); code != "" {
			_ = m.enqueue(sc, func() { m.runCode(sc, code) })
		}
	}
	close(sc.done)
	m.rt.timers.StopForSource(sc.name)
}

// CloseAll tears down every screen context.
func (m *ScreenManager) CloseAll() {
	m.mu.Lock()
	names := make([]string, 0, len(m.screens))
	for n := range m.screens {
		names = append(names, n)
	}
	m.mu.Unlock()
	for _, n := range names {
		m.NotifyClosed(n)
	}
}

/* ===========================
   Variable store
   =========================== */

// GetVar reads one screen variable. Concurrent with SetVar from other
// timer/screen goroutines; last write wins.
func (m *ScreenManager) GetVar(screen, name string) (Value, bool) {
	sc := m.get(screen)
	if sc == nil {
		return Null, false
	}
	sc.varMu.RLock()
	defer sc.varMu.RUnlock()
	v, ok := sc.vars[strings.ToLower(name)]
	return v, ok
}

// SetVar writes one screen variable.
func (m *ScreenManager) SetVar(screen, name string, v Value) error {
	sc := m.get(screen)
	if sc == nil {
		return rtErrf(NotFoundError, "", "screen %q is not defined", screen)
	}
	sc.varMu.Lock()
	defer sc.varMu.Unlock()
	sc.vars[strings.ToLower(name)] = v
	return nil
}

// Names returns the defined screen names.
func (m *ScreenManager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.screens))
	for n := range m.screens {
		out = append(out, n)
	}
	return out
}

/* ===========================
   definition helpers
   =========================== */

func (m *ScreenManager) defString(sc *screenCtx, key string) string {
	obj, ok := sc.def.(map[string]interface{})
	if !ok {
		return ""
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func (m *ScreenManager) eventCode(sc *screenCtx, key string) string {
	obj, ok := sc.def.(map[string]interface{})
	if !ok {
		return ""
	}
	for k, v := range obj {
		if strings.EqualFold(k, "events") {
			events, ok := v.(map[string]interface{})
			if !ok {
				return ""
			}
			for ek, ev := range events {
				if strings.EqualFold(ek, key) {
					if s, ok := ev.(string); ok {
						return s
					}
				}
			}
		}
	}
	return ""
}
