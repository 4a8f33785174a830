// lexer.go: scans EBS source text into a flat token stream.
//
// Keywords and identifiers are case-insensitive; the lexer normalizes the
// lookup form to lower case while keeping the original spelling in
// Token.Lexeme for display. String literals accept single or double quotes,
// the usual escapes, and raw embedded newline/CR/tab (multi-line inline
// handler code is a normal authoring pattern); all other control characters
// are rejected. A string whose content is an ISO date or datetime becomes a
// DATE token carrying a time.Time literal.
package ebscript

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LROUND  // "("
	RROUND  // ")"
	LSQUARE // "["
	RSQUARE // "]"
	LCURLY  // "{"
	RCURLY  // "}"
	COLON   // ":"
	SEMI    // ";"
	COMMA   // ","
	PERIOD  // "."

	// Operators
	PLUS
	MINUS
	MULT
	DIV
	CARET // "^" exponent
	ASSIGN
	EQ
	NEQ
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ
	BANG
	AND // "&&" or word form "and"
	OR  // "||" or word form "or"
	PLUS_PLUS
	MINUS_MINUS
	PLUS_ASSIGN
	MINUS_ASSIGN
	MULT_ASSIGN
	DIV_ASSIGN

	// Literals & identifiers
	ID
	STRING
	INTEGER // int32 literal
	LONGVAL // int64 literal (L suffix or int overflow)
	FLOATVAL
	DOUBLEVAL
	BOOLEAN
	NULLTOK
	DATE

	// Keywords
	VAR
	PRINT
	CALL
	RETURN
	IF
	THEN
	ELSE
	WHILE
	DO
	FOR
	FOREACH
	IN
	BREAK
	CONTINUE
	FUNCTION
	IMPORT
	TRY
	EXCEPTIONS
	WHEN
	RAISE
	EXCEPTION
	TYPEDEF
	SCREEN
	SHOW
	HIDE
	CLOSE
	RECORD
	BITMAP
	INTMAP
)

// Token is a lexical token with optional literal value. For ID tokens the
// Literal holds the lower-cased canonical name; Lexeme keeps the spelling
// as written.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Col     int
}

var keywords = map[string]TokenType{
	"var":        VAR,
	"print":      PRINT,
	"call":       CALL,
	"return":     RETURN,
	"if":         IF,
	"then":       THEN,
	"else":       ELSE,
	"while":      WHILE,
	"do":         DO,
	"for":        FOR,
	"foreach":    FOREACH,
	"in":         IN,
	"break":      BREAK,
	"continue":   CONTINUE,
	"function":   FUNCTION,
	"import":     IMPORT,
	"try":        TRY,
	"exceptions": EXCEPTIONS,
	"when":       WHEN,
	"raise":      RAISE,
	"exception":  EXCEPTION,
	"typedef":    TYPEDEF,
	"screen":     SCREEN,
	"show":       SHOW,
	"hide":       HIDE,
	"close":      CLOSE,
	"record":     RECORD,
	"bitmap":     BITMAP,
	"intmap":     INTMAP,
	"and":        AND,
	"or":         OR,
	"not":        BANG,
	"true":       BOOLEAN,
	"false":      BOOLEAN,
	"null":       NULLTOK,
}

// Lexer scans an EBS source string into tokens.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 0-based column within line
	tokens []Token

	tokStartLine int
	tokStartCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 0}
}

// Tokenize scans src into a token list ending with EOF. It is a pure
// function of its input.
func Tokenize(src string) ([]Token, error) {
	return NewLexer(src).ScanTokens()
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) match(expected byte) bool {
	if ch, ok := l.peek(); ok && ch == expected {
		l.advance()
		return true
	}
	return false
}

func (l *Lexer) addToken(tt TokenType, lit interface{}) {
	lex := l.src[l.start:l.cur]
	l.tokens = append(l.tokens, Token{
		Type:    tt,
		Lexeme:  lex,
		Literal: lit,
		Line:    l.tokStartLine,
		Col:     l.tokStartCol,
	})
	l.start = l.cur
}

func (l *Lexer) errf(format string, args ...interface{}) error {
	return &LexError{Line: l.tokStartLine, Col: l.tokStartCol, Msg: fmt.Sprintf(format, args...)}
}

// ScanTokens scans the whole source, returning the token list terminated by
// an EOF token, or the first LexError encountered.
func (l *Lexer) ScanTokens() ([]Token, error) {
	for {
		l.skipWhitespaceAndComments()
		if l.isAtEnd() {
			break
		}
		l.tokStartLine = l.line
		l.tokStartCol = l.col + 1
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.tokStartLine = l.line
	l.tokStartCol = l.col + 1
	l.addToken(EOF, nil)
	return l.tokens, nil
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch ch {
		case ' ', '\r', '\n', '\t':
			l.advance()
			l.start = l.cur
		case '/':
			nxt, ok := l.peekN(1)
			if ok && nxt == '/' {
				for !l.isAtEnd() {
					c, _ := l.peek()
					if c == '\n' {
						break
					}
					l.advance()
				}
				l.start = l.cur
			} else if ok && nxt == '*' {
				l.skipBlockComment()
				l.start = l.cur
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) skipBlockComment() {
	l.advance() // '/'
	l.advance() // '*'
	for !l.isAtEnd() {
		ch, _ := l.advance()
		if ch == '*' {
			if nxt, ok := l.peek(); ok && nxt == '/' {
				l.advance()
				return
			}
		}
	}
	// unterminated block comments are tolerated at EOF by the scanner loop;
	// the parser will see a premature EOF and report there
}

func (l *Lexer) scanToken() error {
	ch, _ := l.advance()
	switch ch {
	case '(':
		l.addToken(LROUND, nil)
	case ')':
		l.addToken(RROUND, nil)
	case '[':
		l.addToken(LSQUARE, nil)
	case ']':
		l.addToken(RSQUARE, nil)
	case '{':
		l.addToken(LCURLY, nil)
	case '}':
		l.addToken(RCURLY, nil)
	case ':':
		l.addToken(COLON, nil)
	case ';':
		l.addToken(SEMI, nil)
	case ',':
		l.addToken(COMMA, nil)
	case '.':
		l.addToken(PERIOD, nil)
	case '^':
		l.addToken(CARET, nil)
	case '+':
		if l.match('+') {
			l.addToken(PLUS_PLUS, nil)
		} else if l.match('=') {
			l.addToken(PLUS_ASSIGN, nil)
		} else {
			l.addToken(PLUS, nil)
		}
	case '-':
		if l.match('-') {
			l.addToken(MINUS_MINUS, nil)
		} else if l.match('=') {
			l.addToken(MINUS_ASSIGN, nil)
		} else {
			l.addToken(MINUS, nil)
		}
	case '*':
		if l.match('=') {
			l.addToken(MULT_ASSIGN, nil)
		} else {
			l.addToken(MULT, nil)
		}
	case '/':
		if l.match('=') {
			l.addToken(DIV_ASSIGN, nil)
		} else {
			l.addToken(DIV, nil)
		}
	case '=':
		if l.match('=') {
			l.addToken(EQ, nil)
		} else {
			l.addToken(ASSIGN, nil)
		}
	case '!':
		if l.match('=') {
			l.addToken(NEQ, nil)
		} else {
			l.addToken(BANG, nil)
		}
	case '<':
		if l.match('=') {
			l.addToken(LESS_EQ, nil)
		} else {
			l.addToken(LESS, nil)
		}
	case '>':
		if l.match('=') {
			l.addToken(GREATER_EQ, nil)
		} else {
			l.addToken(GREATER, nil)
		}
	case '&':
		if l.match('&') {
			l.addToken(AND, nil)
		} else {
			return l.errf("unexpected character '&' (did you mean '&&'?)")
		}
	case '|':
		if l.match('|') {
			l.addToken(OR, nil)
		} else {
			return l.errf("unexpected character '|' (did you mean '||'?)")
		}
	case '\'', '"':
		return l.scanString(ch)
	default:
		if isDigit(ch) {
			return l.scanNumber()
		}
		if isAlpha(ch) {
			l.scanIdentifier()
			return nil
		}
		if ch < 0x20 {
			return l.errf("invalid control character 0x%02x", ch)
		}
		return l.errf("unexpected character %q", string(rune(ch)))
	}
	return nil
}

func (l *Lexer) scanIdentifier() {
	for {
		ch, ok := l.peek()
		if !ok || !isAlphaNum(ch) {
			break
		}
		l.advance()
	}
	raw := l.src[l.start:l.cur]
	lower := strings.ToLower(raw)
	if tt, ok := keywords[lower]; ok {
		switch tt {
		case BOOLEAN:
			l.addToken(BOOLEAN, lower == "true")
		case NULLTOK:
			l.addToken(NULLTOK, nil)
		default:
			l.addToken(tt, lower)
		}
		return
	}
	l.addToken(ID, lower)
}

func (l *Lexer) scanNumber() error {
	for {
		ch, ok := l.peek()
		if !ok || !isDigit(ch) {
			break
		}
		l.advance()
	}
	isDecimal := false
	if ch, ok := l.peek(); ok && ch == '.' {
		if nxt, ok2 := l.peekN(1); ok2 && isDigit(nxt) {
			isDecimal = true
			l.advance()
			for {
				c, ok3 := l.peek()
				if !ok3 || !isDigit(c) {
					break
				}
				l.advance()
			}
		}
	}
	digits := l.src[l.start:l.cur]

	// suffixes: l/L force long, f/F float, d/D double
	if ch, ok := l.peek(); ok {
		switch ch {
		case 'l', 'L':
			if isDecimal {
				return l.errf("'L' suffix is not valid on a decimal literal")
			}
			l.advance()
			n, err := strconv.ParseInt(digits, 10, 64)
			if err != nil {
				return l.errf("long literal out of range: %s", digits)
			}
			l.addToken(LONGVAL, n)
			return nil
		case 'f', 'F':
			l.advance()
			f, err := strconv.ParseFloat(digits, 32)
			if err != nil {
				return l.errf("float literal out of range: %s", digits)
			}
			l.addToken(FLOATVAL, float32(f))
			return nil
		case 'd', 'D':
			l.advance()
			f, err := strconv.ParseFloat(digits, 64)
			if err != nil {
				return l.errf("double literal out of range: %s", digits)
			}
			l.addToken(DOUBLEVAL, f)
			return nil
		}
	}

	if isDecimal {
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return l.errf("number out of range: %s", digits)
		}
		l.addToken(DOUBLEVAL, f)
		return nil
	}
	// int by default, widened to long when it does not fit in 32 bits
	if n, err := strconv.ParseInt(digits, 10, 32); err == nil {
		l.addToken(INTEGER, int32(n))
		return nil
	}
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		l.addToken(LONGVAL, n)
		return nil
	}
	return l.errf("integer literal out of range: %s", digits)
}

// dateLayouts are tried in order against string-literal content; a match
// turns the literal into a DATE token.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func (l *Lexer) scanString(quote byte) error {
	var b strings.Builder
	for {
		if l.isAtEnd() {
			return l.errf("unterminated string literal")
		}
		ch, _ := l.advance()
		if ch == quote {
			break
		}
		if ch == '\\' {
			if l.isAtEnd() {
				return l.errf("unterminated string literal")
			}
			esc, _ := l.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '\\':
				b.WriteByte('\\')
			case '\'':
				b.WriteByte('\'')
			case '"':
				b.WriteByte('"')
			case 'u':
				r, err := l.readHexRune(4)
				if err != nil {
					return err
				}
				b.WriteRune(r)
			case 'x':
				r, err := l.readHexRune(2)
				if err != nil {
					return err
				}
				b.WriteByte(byte(r))
			default:
				return l.errf("invalid escape sequence '\\%s'", string(rune(esc)))
			}
			continue
		}
		// raw newline, CR, and tab are literal content; other control
		// characters are rejected
		if ch < 0x20 && ch != '\n' && ch != '\r' && ch != '\t' {
			return l.errf("invalid control character 0x%02x in string literal", ch)
		}
		b.WriteByte(ch)
	}
	content := b.String()
	if !utf8.ValidString(content) {
		return l.errf("string literal is not valid UTF-8")
	}
	for _, layout := range dateLayouts {
		if len(content) == len(layout) {
			if t, err := time.ParseInLocation(layout, content, time.Local); err == nil {
				l.addToken(DATE, t)
				return nil
			}
		}
	}
	l.addToken(STRING, content)
	return nil
}

func (l *Lexer) readHexRune(n int) (rune, error) {
	var v rune
	for i := 0; i < n; i++ {
		ch, ok := l.advance()
		if !ok || !isHex(ch) {
			return 0, l.errf("invalid hex escape in string literal")
		}
		v = v*16 + rune(hexVal(ch))
	}
	return v, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
func hexVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	default:
		return int(b-'A') + 10
	}
}
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}
