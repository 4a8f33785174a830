// runtime.go: the embeddable execution engine.
//
// A Runtime owns everything one embedding needs: the environment arena,
// the write-once builtin registry, the typedef table, the import cache,
// the timer manager, and the screen manager. All of it is constructed in
// NewRuntime and injected into the evaluator; there is no package-level
// mutable state, so two Runtimes in one process are fully independent.
package ebscript

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Runtime is one independent script execution engine.
type Runtime struct {
	env    *Env
	reg    *Registry
	logger *slog.Logger
	stdout io.Writer
	cfg    *Config

	typedefMu sync.RWMutex
	typedefs  map[string]*TypeSpec

	propMu sync.RWMutex
	props  map[string]string

	imports *importSet
	timers  *TimerManager
	watches *stopwatchSet
	screens *ScreenManager

	randMu  sync.Mutex
	randSrc randSource
}

// Option configures a Runtime at construction.
type Option func(*Runtime)

// WithLogger sets the structured logger used for uncaught timer/screen
// errors and debug builtins.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// WithStdout redirects `print` and console builtins.
func WithStdout(w io.Writer) Option {
	return func(r *Runtime) { r.stdout = w }
}

// WithConfig supplies runner configuration (safe directories, library
// path). A nil config means no confinement.
func WithConfig(cfg *Config) Option {
	return func(r *Runtime) { r.cfg = cfg }
}

// WithScreenHost attaches the external rendering collaborator.
func WithScreenHost(h ScreenHost) Option {
	return func(r *Runtime) { r.screens.host = h }
}

// NewRuntime builds a Runtime with every builtin category registered.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		env:      NewEnv(),
		reg:      newRegistry(),
		logger:   slog.Default(),
		stdout:   os.Stdout,
		typedefs: make(map[string]*TypeSpec),
		props:    make(map[string]string),
		imports:  newImportSet(),
		watches:  newStopwatchSet(),
		randSrc:  newRandSource(),
	}
	r.timers = newTimerManager(r)
	r.screens = newScreenManager(r)
	for _, o := range opts {
		o(r)
	}

	registerStringBuiltins(r.reg)
	registerArrayBuiltins(r.reg)
	registerJSONBuiltins(r.reg)
	registerFileBuiltins(r.reg)
	registerCryptoBuiltins(r.reg)
	registerDateBuiltins(r.reg)
	registerRandomBuiltins(r.reg)
	registerBinaryBuiltins(r.reg)
	registerSystemBuiltins(r.reg)
	registerDebugBuiltins(r.reg)
	registerStopwatchBuiltins(r.reg)
	registerThreadBuiltins(r.reg)
	registerScreenBuiltins(r.reg)
	return r
}

// Close stops all timers and screen workers. The Runtime must not be used
// afterward.
func (r *Runtime) Close() {
	r.timers.StopAll()
	r.screens.CloseAll()
}

// Logger returns the runtime's structured logger.
func (r *Runtime) Logger() *slog.Logger { return r.logger }

// Parse turns source text into a Program, decorating lex/parse errors with
// a caret snippet of the source.
func (r *Runtime) Parse(src, name string) (*Program, error) {
	prog, err := Parse(src, name)
	if err != nil {
		return nil, WrapErrorWithName(err, name, src)
	}
	return prog, nil
}

// Execute runs a parsed program in the global frame and returns the value
// of a top-level `return`, if any.
func (r *Runtime) Execute(prog *Program) (Value, error) {
	ip := &Interp{rt: r, frame: 0, prog: prog.Name}
	fl, err := ip.execStmts(prog.Stmts)
	if err != nil {
		return Null, err
	}
	if fl.kind == flowReturn {
		return fl.val, nil
	}
	return Null, nil
}

// Run parses and executes src.
func (r *Runtime) Run(src, name string) (Value, error) {
	prog, err := r.Parse(src, name)
	if err != nil {
		return Null, err
	}
	return r.Execute(prog)
}

// RunFile reads, parses, and executes a script file. The file's directory
// becomes the base for relative imports.
func (r *Runtime) RunFile(path string) (Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Null, rtErrf(IoError, "", "cannot read %s: %v", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	prog, perr := r.Parse(string(data), filepath.Base(path))
	if perr != nil {
		return Null, perr
	}
	ip := &Interp{rt: r, frame: 0, prog: prog.Name, dir: filepath.Dir(abs)}
	fl, xerr := ip.execStmts(prog.Stmts)
	if xerr != nil {
		return Null, xerr
	}
	if fl.kind == flowReturn {
		return fl.val, nil
	}
	return Null, nil
}

/* ===========================
   Typedefs
   =========================== */

func (r *Runtime) defineTypedef(name string, t *TypeSpec) error {
	name = strings.ToLower(name)
	if _, ok := ScalarKind(name); ok {
		return typeErrf("cannot redefine builtin type %q", name)
	}
	r.typedefMu.Lock()
	defer r.typedefMu.Unlock()
	r.typedefs[name] = t
	return nil
}

// resolveType replaces typedef aliases, recursively, returning a TypeSpec
// with no Alias fields left.
func (r *Runtime) resolveType(t *TypeSpec) (*TypeSpec, error) {
	return r.resolveTypeDepth(t, 0)
}

func (r *Runtime) resolveTypeDepth(t *TypeSpec, depth int) (*TypeSpec, error) {
	if t == nil {
		return nil, nil
	}
	if depth > 32 {
		return nil, typeErrf("typedef chain too deep (cycle?)")
	}
	if t.Alias != "" {
		r.typedefMu.RLock()
		target, ok := r.typedefs[t.Alias]
		r.typedefMu.RUnlock()
		if !ok {
			return nil, typeErrf("unknown type %q", t.Alias)
		}
		return r.resolveTypeDepth(target, depth+1)
	}
	if t.Kind == KindArray {
		elem, err := r.resolveTypeDepth(t.Elem, depth+1)
		if err != nil {
			return nil, err
		}
		if elem != t.Elem {
			cp := *t
			cp.Elem = elem
			return &cp, nil
		}
		return t, nil
	}
	if t.Kind == KindRecord && t.Record != nil {
		for _, f := range t.Record.FieldNames {
			ft, err := r.resolveTypeDepth(t.Record.FieldTypes[f], depth+1)
			if err != nil {
				return nil, typeErrf("field %q: %s", f, err.Error())
			}
			t.Record.FieldTypes[f] = ft
		}
	}
	return t, nil
}

/* ===========================
   System properties
   =========================== */

func (r *Runtime) getProp(name string) (string, bool) {
	r.propMu.RLock()
	defer r.propMu.RUnlock()
	v, ok := r.props[name]
	return v, ok
}

func (r *Runtime) setProp(name, value string) {
	r.propMu.Lock()
	defer r.propMu.Unlock()
	r.props[name] = value
}

/* ===========================
   Host surface (spec'd embedding API)
   =========================== */

// GetScreenVariable reads one variable from a named screen context.
func (r *Runtime) GetScreenVariable(screen, name string) (Value, bool) {
	return r.screens.GetVar(screen, name)
}

// SetScreenVariable writes one variable into a named screen context.
func (r *Runtime) SetScreenVariable(screen, name string, v Value) error {
	return r.screens.SetVar(screen, name, v)
}

// RunOnScreenThread queues source code for execution on the screen's
// worker goroutine.
func (r *Runtime) RunOnScreenThread(screen, src string) error {
	return r.screens.RunOn(screen, src)
}

// NotifyEvent is called by the rendering collaborator when the user
// interacts with a widget; it runs the matching event handler on the
// screen's worker.
func (r *Runtime) NotifyEvent(screen, item, eventType string) {
	r.screens.NotifyEvent(screen, item, eventType)
}

// NotifyClosed is called by the rendering collaborator after a screen
// window is closed; it runs cleanup code and tears down the context.
func (r *Runtime) NotifyClosed(screen string) {
	r.screens.NotifyClosed(screen)
}

// callFunctionByName runs a named zero-argument script function. Used for
// timer callbacks and screen event handlers; the screen argument sets the
// current-context value for the duration of the call. A missing function
// is reported as an UndefinedNameError.
func (r *Runtime) callFunctionByName(name, screen string) error {
	fv, ok := r.env.Lookup(0, name)
	if !ok || fv.Kind != KindFunc {
		return &UndefinedNameError{Name: name}
	}
	ip := &Interp{rt: r, frame: 0, screen: screen, prog: "<callback>"}
	_, err := ip.callFunction(fv.asFunc(), nil)
	return err
}

func (r *Runtime) String() string {
	return fmt.Sprintf("Runtime(builtins=%d)", len(r.reg.order))
}
