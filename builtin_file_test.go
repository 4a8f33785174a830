// builtin_file_test.go
package ebscript

import (
	"path/filepath"
	"strings"
	"testing"
)

func fileRuntime(t *testing.T, safeDirs ...string) *Runtime {
	t.Helper()
	return testRuntime(t, WithConfig(&Config{SafeDirs: safeDirs}))
}

func Test_File_Write_Read_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	rt := fileRuntime(t, dir)
	path := filepath.Join(dir, "note.txt")
	v, err := rt.Run(`
call file.writetext("`+path+`", "hello file");
return call file.readtext("`+path+`");
`, "test")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantStr(t, v, "hello file")
}

func Test_File_Append(t *testing.T) {
	dir := t.TempDir()
	rt := fileRuntime(t, dir)
	path := filepath.Join(dir, "log.txt")
	v, err := rt.Run(`
call file.appendtext("`+path+`", "a");
call file.appendtext("`+path+`", "b");
return call file.readtext("`+path+`");
`, "test")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantStr(t, v, "ab")
}

func Test_File_Exists_And_Size(t *testing.T) {
	dir := t.TempDir()
	rt := fileRuntime(t, dir)
	path := filepath.Join(dir, "data.bin")
	v, err := rt.Run(`
var before: bool = call file.exists("`+path+`");
call file.writetext("`+path+`", "12345");
var size: long = call file.size("`+path+`");
return "" + before + "/" + size;
`, "test")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantStr(t, v, "false/5")
}

func Test_File_Size_Missing_Is_NotFound(t *testing.T) {
	dir := t.TempDir()
	rt := fileRuntime(t, dir)
	_, err := rt.Run(`return call file.size("`+filepath.Join(dir, "nope")+`");`, "test")
	if err == nil || kindOf(err) != NotFoundError {
		t.Fatalf("want NOT_FOUND_ERROR, got %v", err)
	}
}

func Test_File_Binary_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	rt := fileRuntime(t, dir)
	path := filepath.Join(dir, "blob")
	v, err := rt.Run(`
call file.writebinary("`+path+`", call binary.fromstring("raw bytes"));
return call binary.tostring(call file.readbinary("`+path+`"));
`, "test")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantStr(t, v, "raw bytes")
}

func Test_File_Outside_SafeDirs_Rejected(t *testing.T) {
	safe := t.TempDir()
	outside := t.TempDir()
	rt := fileRuntime(t, safe)
	_, err := rt.Run(`call file.writetext("`+filepath.Join(outside, "x")+`", "nope");`, "test")
	if err == nil || kindOf(err) != AccessError {
		t.Fatalf("want ACCESS_ERROR, got %v", err)
	}
	if !strings.Contains(err.Error(), "safe") {
		t.Fatalf("error should mention safe directories: %v", err)
	}
}

func Test_File_No_SafeDirs_Means_No_Confinement(t *testing.T) {
	dir := t.TempDir()
	rt := testRuntime(t) // no config at all
	path := filepath.Join(dir, "free.txt")
	v, err := rt.Run(`
call file.writetext("`+path+`", "ok");
return call file.readtext("`+path+`");
`, "test")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantStr(t, v, "ok")
}

func Test_File_Copy_Move_Delete(t *testing.T) {
	dir := t.TempDir()
	rt := fileRuntime(t, dir)
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	c := filepath.Join(dir, "c.txt")
	v, err := rt.Run(`
call file.writetext("`+a+`", "payload");
call file.copy("`+a+`", "`+b+`");
call file.move("`+b+`", "`+c+`");
call file.delete("`+a+`");
return "" + call file.exists("`+a+`") + "/" + call file.exists("`+b+`") + "/" + call file.readtext("`+c+`");
`, "test")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantStr(t, v, "false/false/payload")
}

func Test_File_List(t *testing.T) {
	dir := t.TempDir()
	rt := fileRuntime(t, dir)
	v, err := rt.Run(`
call file.writetext("`+filepath.Join(dir, "one")+`", "");
call file.writetext("`+filepath.Join(dir, "two")+`", "");
var entries: string[*] = call file.list("`+dir+`");
return call array.join(call array.sort(entries), ",");
`, "test")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantStr(t, v, "one,two")
}
