// imports_test.go
package ebscript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func Test_Import_Functions_Become_Callable(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "lib.ebs", `
triple(n: int) return int {
    return n * 3;
}
`)
	main := writeScript(t, dir, "main.ebs", `
import "lib.ebs";
return call triple(7);
`)
	rt := testRuntime(t)
	v, err := rt.RunFile(main)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	wantInt(t, v, 21)
}

func Test_Import_Runs_Side_Effects_Once(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "counted.ebs", `
loads += 1;
`)
	writeScript(t, dir, "a.ebs", `import "counted.ebs";`)
	writeScript(t, dir, "b.ebs", `import "counted.ebs";`)
	main := writeScript(t, dir, "main.ebs", `
import "a.ebs";
import "b.ebs";
import "counted.ebs";
return loads;
`)
	rt := testRuntime(t)
	if _, err := rt.Run(`var loads: int = 0;`, "setup"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	v, err := rt.RunFile(main)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	wantInt(t, v, 1)
}

func Test_Import_Relative_To_Importer(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "lib/util.ebs", `
greet return string {
    return "hi";
}
`)
	writeScript(t, dir, "lib/outer.ebs", `import "util.ebs";`)
	main := writeScript(t, dir, "main.ebs", `
import "lib/outer.ebs";
return call greet();
`)
	rt := testRuntime(t)
	v, err := rt.RunFile(main)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	wantStr(t, v, "hi")
}

func Test_Import_Path_With_Spaces(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "my lib.ebs", `
answer return int {
    return 42;
}
`)
	main := writeScript(t, dir, "main.ebs", `
import "my lib.ebs";
return call answer();
`)
	rt := testRuntime(t)
	v, err := rt.RunFile(main)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	wantInt(t, v, 42)
}

func Test_Import_First_Function_Definition_Wins(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "lib.ebs", `
flavor return string {
    return "imported";
}
`)
	main := writeScript(t, dir, "main.ebs", `
flavor return string {
    return "local";
}
import "lib.ebs";
return call flavor();
`)
	rt := testRuntime(t)
	v, err := rt.RunFile(main)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	wantStr(t, v, "local")
}

func Test_Import_Cycle_Reports_Chain(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.ebs", `import "b.ebs";`)
	writeScript(t, dir, "b.ebs", `import "a.ebs";`)
	main := writeScript(t, dir, "main.ebs", `import "a.ebs";`)
	rt := testRuntime(t)
	_, err := rt.RunFile(main)
	if err == nil {
		t.Fatalf("expected a cycle error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "import cycle") {
		t.Fatalf("want cycle error, got %v", err)
	}
	if !strings.Contains(msg, "a.ebs -> b.ebs -> a.ebs") {
		t.Fatalf("cycle chain missing from %q", msg)
	}
}

func Test_Import_Missing_File(t *testing.T) {
	dir := t.TempDir()
	main := writeScript(t, dir, "main.ebs", `import "nosuch.ebs";`)
	rt := testRuntime(t)
	_, err := rt.RunFile(main)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if kindOf(err) != IoError {
		t.Fatalf("want IO_ERROR, got %v (%v)", kindOf(err), err)
	}
}
