// errors.go: the error taxonomy plus user-facing caret-snippet rendering.
//
// Lexing and parsing failures abort before execution and carry 1-based
// source coordinates; WrapErrorWithSource decorates them with a numbered,
// caret-annotated snippet of the offending source. Runtime-side errors
// (TypeError, ArgumentError, UndefinedNameError, RuntimeError,
// DuplicateNameError) are plain Go errors; when they cross into a script's
// try/exceptions block they are matched by ErrorKind (see kindOf).
package ebscript

import (
	"fmt"
	"strings"
)

// ErrorKind names the categories a script-level `when` clause can match.
// Custom kinds raised by `raise exception NAME(...)` are matched by their
// literal (upper-cased) name; AnyError catches everything.
type ErrorKind string

const (
	AnyError        ErrorKind = "ANY_ERROR"
	IoError         ErrorKind = "IO_ERROR"
	TypeErrorKind   ErrorKind = "TYPE_ERROR"
	NullError       ErrorKind = "NULL_ERROR"
	IndexError      ErrorKind = "INDEX_ERROR"
	MathError       ErrorKind = "MATH_ERROR"
	ParseErrorKind  ErrorKind = "PARSE_ERROR"
	NetworkError    ErrorKind = "NETWORK_ERROR"
	NotFoundError   ErrorKind = "NOT_FOUND_ERROR"
	AccessError     ErrorKind = "ACCESS_ERROR"
	ValidationError ErrorKind = "VALIDATION_ERROR"
	CryptoError     ErrorKind = "CRYPTO_ERROR"
)

var standardKinds = map[ErrorKind]bool{
	AnyError: true, IoError: true, TypeErrorKind: true, NullError: true,
	IndexError: true, MathError: true, ParseErrorKind: true,
	NetworkError: true, NotFoundError: true, AccessError: true,
	ValidationError: true, CryptoError: true,
}

// IsStandardKind reports whether name is one of the predefined error kinds.
func IsStandardKind(name string) bool {
	return standardKinds[ErrorKind(strings.ToUpper(name))]
}

// LexError is a malformed-token failure with 1-based coordinates.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEX ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// ParseError is a grammar violation with 1-based coordinates. Parsing stops
// at the first one; there is no error recovery.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// TypeError is a failed coercion or structured-type validation.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return "TYPE ERROR: " + e.Msg }

func typeErrf(format string, args ...any) *TypeError {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}

// ArgumentError is a builtin arity/type mismatch. Name is the qualified
// builtin ("crypto.sha256") so script authors can find the bad call.
type ArgumentError struct {
	Name string
	Msg  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("ARGUMENT ERROR in %s: %s", e.Name, e.Msg)
}

func argErrf(name, format string, args ...any) *ArgumentError {
	return &ArgumentError{Name: name, Msg: fmt.Sprintf(format, args...)}
}

// UndefinedNameError is an unresolved variable or function reference.
type UndefinedNameError struct {
	Name string
}

func (e *UndefinedNameError) Error() string { return "undefined name: " + e.Name }

// RuntimeError is a category-specific builtin failure (file not found,
// decrypt failure, ...). Name is the qualified builtin when raised by one.
type RuntimeError struct {
	Kind ErrorKind
	Name string
	Msg  string
}

func (e *RuntimeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("RUNTIME ERROR (%s) in %s: %s", e.Kind, e.Name, e.Msg)
	}
	return fmt.Sprintf("RUNTIME ERROR (%s): %s", e.Kind, e.Msg)
}

func rtErrf(kind ErrorKind, name, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Name: name, Msg: fmt.Sprintf(format, args...)}
}

// DuplicateNameError is a collision on a script-managed name (an active
// timer, a redefined function).
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string { return "duplicate name: " + e.Name }

// scriptRaise carries `raise exception KIND("msg")` up to the nearest
// try/exceptions block. Runtime errors are folded into the same shape for
// `when` matching via kindOf.
type scriptRaise struct {
	Kind ErrorKind
	Msg  string
	Line int
}

func (e *scriptRaise) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// kindOf maps an evaluator error onto the ErrorKind used for `when`
// dispatch. Errors outside the taxonomy match only ANY_ERROR.
func kindOf(err error) ErrorKind {
	switch e := err.(type) {
	case *scriptRaise:
		return e.Kind
	case *RuntimeError:
		return e.Kind
	case *TypeError:
		return TypeErrorKind
	case *ArgumentError:
		return ValidationError
	case *UndefinedNameError:
		return NotFoundError
	case *DuplicateNameError:
		return ValidationError
	case *ParseError:
		return ParseErrorKind
	default:
		return ""
	}
}

/* ===========================
   Caret snippets
   =========================== */

// WrapErrorWithSource augments a *LexError or *ParseError with a numbered
// snippet of src and a caret under the offending column. Other errors are
// returned unchanged.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName behaves like WrapErrorWithSource but prefixes the
// snippet with a display name (file name, "<repl>", ...) when non-empty.
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", prettyErrorString(src, e.Error(), srcName, e.Line, e.Col))
	case *ParseError:
		return fmt.Errorf("%s", prettyErrorString(src, e.Error(), srcName, e.Line, e.Col))
	default:
		return err
	}
}

func prettyErrorString(src, header, name string, line, col int) string {
	var b strings.Builder
	if name != "" {
		b.WriteString(name)
		b.WriteString(": ")
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}

	width := len(fmt.Sprintf("%d", minInt(line+1, len(lines))))
	emit := func(n int) {
		if n < 1 || n > len(lines) {
			return
		}
		fmt.Fprintf(&b, "  %*d | %s\n", width, n, lines[n-1])
	}

	emit(line - 1)
	emit(line)
	cur := lines[line-1]
	caretCol := col
	if caretCol > len(cur)+1 {
		caretCol = len(cur) + 1
	}
	fmt.Fprintf(&b, "  %*s | %s^\n", width, "", strings.Repeat(" ", caretCol-1))
	emit(line + 1)

	return strings.TrimRight(b.String(), "\n")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
