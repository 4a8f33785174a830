// builtin_file.go: the file.* category.
//
// When the runner configuration lists safe directories, every path is
// confined to them; outside access is an ACCESS_ERROR. With no safe
// directories configured there is no confinement.
package ebscript

import (
	"os"
	"path/filepath"
	"strings"
)

// checkSafePath resolves p and verifies it sits under a configured safe
// directory.
func (ip *Interp) checkSafePath(builtin, p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", rtErrf(IoError, builtin, "cannot resolve path %q: %v", p, err)
	}
	cfg := ip.rt.cfg
	if cfg == nil || len(cfg.SafeDirs) == 0 {
		return abs, nil
	}
	for _, dir := range cfg.SafeDirs {
		safeAbs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(safeAbs, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return abs, nil
		}
	}
	return "", rtErrf(AccessError, builtin, "path %q is outside the configured safe directories", p)
}

func registerFileBuiltins(reg *Registry) {
	def(reg, "file.readtext", "Read a UTF-8 text file.", KindString,
		[]ParamSpec{reqParam("path", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			p, err := ip.checkSafePath("file.readtext", args[0].asString())
			if err != nil {
				return Null, err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return Null, rtErrf(IoError, "file.readtext", "%v", err)
			}
			return StringVal(string(data)), nil
		})

	def(reg, "file.writetext", "Write a UTF-8 text file, replacing any existing content.", KindBool,
		[]ParamSpec{reqParam("path", KindString), reqParam("content", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			p, err := ip.checkSafePath("file.writetext", args[0].asString())
			if err != nil {
				return Null, err
			}
			if err := os.WriteFile(p, []byte(args[1].asString()), 0o644); err != nil {
				return Null, rtErrf(IoError, "file.writetext", "%v", err)
			}
			return BoolVal(true), nil
		})

	def(reg, "file.appendtext", "Append text to a file, creating it if needed.", KindBool,
		[]ParamSpec{reqParam("path", KindString), reqParam("content", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			p, err := ip.checkSafePath("file.appendtext", args[0].asString())
			if err != nil {
				return Null, err
			}
			f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return Null, rtErrf(IoError, "file.appendtext", "%v", err)
			}
			defer f.Close()
			if _, err := f.WriteString(args[1].asString()); err != nil {
				return Null, rtErrf(IoError, "file.appendtext", "%v", err)
			}
			return BoolVal(true), nil
		})

	def(reg, "file.readbinary", "Read a file as a binary value.", KindBinary,
		[]ParamSpec{reqParam("path", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			p, err := ip.checkSafePath("file.readbinary", args[0].asString())
			if err != nil {
				return Null, err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return Null, rtErrf(IoError, "file.readbinary", "%v", err)
			}
			return BinaryVal(data), nil
		})

	def(reg, "file.writebinary", "Write a binary value to a file.", KindBool,
		[]ParamSpec{reqParam("path", KindString), reqParam("content", KindBinary)},
		func(ip *Interp, args []Value) (Value, error) {
			p, err := ip.checkSafePath("file.writebinary", args[0].asString())
			if err != nil {
				return Null, err
			}
			if err := os.WriteFile(p, args[1].asBinary(), 0o644); err != nil {
				return Null, rtErrf(IoError, "file.writebinary", "%v", err)
			}
			return BoolVal(true), nil
		})

	def(reg, "file.exists", "Whether a file or directory exists.", KindBool,
		[]ParamSpec{reqParam("path", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			p, err := ip.checkSafePath("file.exists", args[0].asString())
			if err != nil {
				return Null, err
			}
			_, serr := os.Stat(p)
			return BoolVal(serr == nil), nil
		})

	def(reg, "file.size", "File size in bytes; NOT_FOUND_ERROR when absent.", KindLong,
		[]ParamSpec{reqParam("path", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			p, err := ip.checkSafePath("file.size", args[0].asString())
			if err != nil {
				return Null, err
			}
			fi, serr := os.Stat(p)
			if serr != nil {
				return Null, rtErrf(NotFoundError, "file.size", "%v", serr)
			}
			return LongVal(fi.Size()), nil
		})

	def(reg, "file.delete", "Delete a file.", KindBool,
		[]ParamSpec{reqParam("path", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			p, err := ip.checkSafePath("file.delete", args[0].asString())
			if err != nil {
				return Null, err
			}
			if err := os.Remove(p); err != nil {
				return Null, rtErrf(IoError, "file.delete", "%v", err)
			}
			return BoolVal(true), nil
		})

	def(reg, "file.list", "List directory entries as a string array.", KindArray,
		[]ParamSpec{reqParam("path", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			p, err := ip.checkSafePath("file.list", args[0].asString())
			if err != nil {
				return Null, err
			}
			entries, derr := os.ReadDir(p)
			if derr != nil {
				return Null, rtErrf(IoError, "file.list", "%v", derr)
			}
			a := NewArray(&TypeSpec{Kind: KindString, Length: -1})
			for _, e := range entries {
				a.Items = append(a.Items, StringVal(e.Name()))
			}
			return Value{Kind: KindArray, Data: a}, nil
		})

	def(reg, "file.copy", "Copy a file.", KindBool,
		[]ParamSpec{reqParam("from", KindString), reqParam("to", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			src, err := ip.checkSafePath("file.copy", args[0].asString())
			if err != nil {
				return Null, err
			}
			dst, err := ip.checkSafePath("file.copy", args[1].asString())
			if err != nil {
				return Null, err
			}
			data, rerr := os.ReadFile(src)
			if rerr != nil {
				return Null, rtErrf(IoError, "file.copy", "%v", rerr)
			}
			if werr := os.WriteFile(dst, data, 0o644); werr != nil {
				return Null, rtErrf(IoError, "file.copy", "%v", werr)
			}
			return BoolVal(true), nil
		})

	def(reg, "file.move", "Move or rename a file.", KindBool,
		[]ParamSpec{reqParam("from", KindString), reqParam("to", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			src, err := ip.checkSafePath("file.move", args[0].asString())
			if err != nil {
				return Null, err
			}
			dst, err := ip.checkSafePath("file.move", args[1].asString())
			if err != nil {
				return Null, err
			}
			if err := os.Rename(src, dst); err != nil {
				return Null, rtErrf(IoError, "file.move", "%v", err)
			}
			return BoolVal(true), nil
		})
}
