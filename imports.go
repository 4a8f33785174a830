// imports.go: resolving, caching, and cycle-checking `import` statements.
//
// Paths are resolved relative to the importing file's directory, tolerate
// embedded spaces and subdirectories, and are normalized to a canonical
// absolute path for bookkeeping. Each canonical path is parsed and
// executed at most once per Runtime regardless of how many files import
// it; a file importing itself through any chain is reported with the full
// chain. The user-written spelling is what shows up in error messages.
package ebscript

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type importSet struct {
	mu        sync.Mutex
	done      map[string]bool   // canonical path -> fully imported
	loadStack []string          // canonical paths currently being imported
	spelling  map[string]string // canonical path -> spelling as written
}

func newImportSet() *importSet {
	return &importSet{
		done:     make(map[string]bool),
		spelling: make(map[string]string),
	}
}

// canonicalImportPath resolves spec against baseDir and normalizes the
// result. spec is whatever the author wrote (quotes already stripped by
// the lexer, spaces preserved).
func canonicalImportPath(baseDir, spec string) (string, error) {
	p := strings.TrimSpace(spec)
	if p == "" {
		return "", rtErrf(IoError, "", "empty import path")
	}
	p = filepath.FromSlash(p)
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", rtErrf(IoError, "", "cannot resolve import %q: %v", spec, err)
	}
	return filepath.Clean(abs), nil
}

// importFile loads, parses, and executes the file named by spec exactly
// once. Re-importing an already-imported file is a no-op; a cycle is an
// error naming the chain.
func (r *Runtime) importFile(ip *Interp, spec string) error {
	baseDir := ip.dir
	if baseDir == "" {
		baseDir, _ = os.Getwd()
	}
	canon, err := canonicalImportPath(baseDir, spec)
	if err != nil {
		return err
	}

	r.imports.mu.Lock()
	if r.imports.done[canon] {
		r.imports.mu.Unlock()
		return nil
	}
	for i, active := range r.imports.loadStack {
		if active == canon {
			chain := make([]string, 0, len(r.imports.loadStack)-i+1)
			for _, c := range r.imports.loadStack[i:] {
				chain = append(chain, r.imports.spelling[c])
			}
			chain = append(chain, spec)
			r.imports.mu.Unlock()
			return rtErrf(IoError, "", "import cycle: %s", strings.Join(chain, " -> "))
		}
	}
	r.imports.loadStack = append(r.imports.loadStack, canon)
	r.imports.spelling[canon] = spec
	r.imports.mu.Unlock()

	defer func() {
		r.imports.mu.Lock()
		r.imports.loadStack = r.imports.loadStack[:len(r.imports.loadStack)-1]
		r.imports.mu.Unlock()
	}()

	data, rerr := os.ReadFile(canon)
	if rerr != nil {
		return rtErrf(IoError, "", "cannot read import %q: %v", spec, rerr)
	}
	prog, perr := r.Parse(string(data), spec)
	if perr != nil {
		return perr
	}

	// imported top-level code runs in the global frame so its functions
	// and variables become visible to the importer; function definitions
	// register no-overwrite (the first definition of a name wins)
	imp := &Interp{rt: r, frame: 0, screen: ip.screen, prog: spec, dir: filepath.Dir(canon)}
	if err := imp.execImported(prog.Stmts); err != nil {
		return err
	}

	r.imports.mu.Lock()
	r.imports.done[canon] = true
	r.imports.mu.Unlock()
	return nil
}

// execImported runs an imported file's top-level statements, registering
// function definitions only when the name is still free.
func (ip *Interp) execImported(stmts []Stmt) error {
	for _, s := range stmts {
		if fd, ok := s.(*FuncDeclStmt); ok {
			fn := &Function{
				Name:       fd.Name,
				Params:     fd.Params,
				ReturnType: fd.ReturnType,
				Body:       fd.Body,
				Frame:      ip.frame,
			}
			ip.rt.env.DefineIfAbsent(ip.frame, fd.Name, nil, Value{Kind: KindFunc, Data: fn})
			continue
		}
		fl, err := ip.execStmt(s)
		if err != nil {
			return err
		}
		if fl.kind == flowReturn {
			return nil
		}
	}
	return nil
}
