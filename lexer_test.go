// lexer_test.go
package ebscript

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func toks(t *testing.T, src string) []Token {
	t.Helper()
	ts, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	return ts
}

func typesWithoutEOF(tokens []Token) []TokenType {
	if len(tokens) == 0 {
		return nil
	}
	end := len(tokens)
	if tokens[end-1].Type == EOF {
		end--
	}
	out := make([]TokenType, 0, end)
	for i := 0; i < end; i++ {
		out = append(out, tokens[i].Type)
	}
	return out
}

func wantTypes(t *testing.T, src string, want []TokenType) []Token {
	t.Helper()
	got := toks(t, src)
	gotTypes := typesWithoutEOF(got)
	if !reflect.DeepEqual(gotTypes, want) {
		t.Fatalf("\nsource:\n%s\nwant types:\n%v\ngot types:\n%v\n", src, want, gotTypes)
	}
	return got
}

func Test_Lexer_VarDecl_And_Print(t *testing.T) {
	src := `
// greeting
var msg: string = "hello"
print msg
`
	wantTypes(t, src, []TokenType{
		VAR, ID, COLON, ID, ASSIGN, STRING,
		PRINT, ID,
	})
}

func Test_Lexer_Keywords_CaseInsensitive(t *testing.T) {
	got := wantTypes(t, `VAR x IF WhIlE FOREACH`, []TokenType{
		VAR, ID, IF, WHILE, FOREACH,
	})
	if got[1].Literal.(string) != "x" {
		t.Fatalf("id literal: got %v", got[1].Literal)
	}
}

func Test_Lexer_Identifier_Canonical_Lowercase(t *testing.T) {
	got := toks(t, `MyCounter`)
	if got[0].Type != ID {
		t.Fatalf("want ID, got %v", got[0].Type)
	}
	if got[0].Literal.(string) != "mycounter" {
		t.Fatalf("canonical name: got %q", got[0].Literal)
	}
	if got[0].Lexeme != "MyCounter" {
		t.Fatalf("lexeme should keep spelling: got %q", got[0].Lexeme)
	}
}

func Test_Lexer_Numeric_Suffixes(t *testing.T) {
	got := wantTypes(t, `1 2L 3.5 4.5f 6d 7f`, []TokenType{
		INTEGER, LONGVAL, DOUBLEVAL, FLOATVAL, DOUBLEVAL, FLOATVAL,
	})
	if got[0].Literal.(int32) != 1 {
		t.Fatalf("int literal: %v", got[0].Literal)
	}
	if got[1].Literal.(int64) != 2 {
		t.Fatalf("long literal: %v", got[1].Literal)
	}
	if got[2].Literal.(float64) != 3.5 {
		t.Fatalf("double literal: %v", got[2].Literal)
	}
	if got[3].Literal.(float32) != 4.5 {
		t.Fatalf("float literal: %v", got[3].Literal)
	}
}

func Test_Lexer_Int_Overflow_Promotes_To_Long(t *testing.T) {
	got := toks(t, `3000000000`)
	if got[0].Type != LONGVAL {
		t.Fatalf("want LONGVAL, got %v", got[0].Type)
	}
	if got[0].Literal.(int64) != 3000000000 {
		t.Fatalf("long literal: %v", got[0].Literal)
	}
}

func Test_Lexer_Long_Suffix_On_Decimal_Rejected(t *testing.T) {
	if _, err := Tokenize(`1.5L`); err == nil {
		t.Fatalf("expected error for L suffix on a decimal literal")
	}
}

func Test_Lexer_Date_Literal(t *testing.T) {
	got := toks(t, `"2024-03-15"`)
	if got[0].Type != DATE {
		t.Fatalf("want DATE, got %v", got[0].Type)
	}
	d := got[0].Literal.(time.Time)
	if d.Year() != 2024 || d.Month() != time.March || d.Day() != 15 {
		t.Fatalf("date literal parsed wrong: %v", d)
	}
}

func Test_Lexer_Plain_String_Stays_String(t *testing.T) {
	got := toks(t, `"2024-03-15 was a Friday"`)
	if got[0].Type != STRING {
		t.Fatalf("want STRING, got %v", got[0].Type)
	}
}

func Test_Lexer_String_Escapes(t *testing.T) {
	got := toks(t, `"a\n\tbé\x41"`)
	want := "a\n\tbéA"
	if got[0].Literal.(string) != want {
		t.Fatalf("escapes: want %q, got %q", want, got[0].Literal)
	}
}

func Test_Lexer_String_Raw_Newline_Allowed(t *testing.T) {
	got := toks(t, "\"line1\nline2\"")
	if got[0].Literal.(string) != "line1\nline2" {
		t.Fatalf("raw newline: got %q", got[0].Literal)
	}
}

func Test_Lexer_String_Unterminated(t *testing.T) {
	_, err := Tokenize(`"oops`)
	if err == nil || !strings.Contains(err.Error(), "unterminated") {
		t.Fatalf("want unterminated string error, got %v", err)
	}
}

func Test_Lexer_Operators(t *testing.T) {
	wantTypes(t, `a += 1; b ++ ; c == d != e <= f >= g ^ 2`, []TokenType{
		ID, PLUS_ASSIGN, INTEGER, SEMI,
		ID, PLUS_PLUS, SEMI,
		ID, EQ, ID, NEQ, ID, LESS_EQ, ID, GREATER_EQ, ID, CARET, INTEGER,
	})
}

func Test_Lexer_Word_Operators(t *testing.T) {
	wantTypes(t, `a and not b or c`, []TokenType{
		ID, AND, BANG, ID, OR, ID,
	})
}

func Test_Lexer_Comments_Skipped(t *testing.T) {
	src := `
// line comment
var x = 1 /* block
   spanning lines */ + 2
`
	wantTypes(t, src, []TokenType{
		VAR, ID, ASSIGN, INTEGER, PLUS, INTEGER,
	})
}

func Test_Lexer_Line_And_Col_Tracking(t *testing.T) {
	got := toks(t, "var x\nvar y")
	// second VAR starts line 2
	if got[2].Line != 2 {
		t.Fatalf("want line 2 for second var, got %d", got[2].Line)
	}
}
