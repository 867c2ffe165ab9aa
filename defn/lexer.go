package defn

import (
	"strings"

	"github.com/viant/dflow/xerrors"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokInt
	tokFloat
	tokStr
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPow
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokColon
	tokAssign
	tokLt
	tokGt
	tokLe
	tokGe
	tokEq
	tokNe
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer turns a definition string into a token stream in a single
// forward pass with no pushback; the parser holds the one token of
// lookahead the grammar needs.
type lexer struct {
	src  string
	pos  int
	defn string
}

func newLexer(defn string) *lexer {
	return &lexer{src: defn, defn: defn}
}

func (l *lexer) errorf(pos int, reason string) *xerrors.ParseError {
	return &xerrors.ParseError{Definition: l.defn, Pos: pos, Reason: reason}
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		break
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}
	c := l.src[l.pos]
	switch {
	case c == '+':
		l.pos++
		return token{kind: tokPlus, text: "+", pos: start}, nil
	case c == '-':
		l.pos++
		return token{kind: tokMinus, text: "-", pos: start}, nil
	case c == '*':
		l.pos++
		if l.peekByte() == '*' {
			l.pos++
			return token{kind: tokPow, text: "**", pos: start}, nil
		}
		return token{kind: tokStar, text: "*", pos: start}, nil
	case c == '/':
		l.pos++
		return token{kind: tokSlash, text: "/", pos: start}, nil
	case c == '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case c == '[':
		l.pos++
		return token{kind: tokLBracket, text: "[", pos: start}, nil
	case c == ']':
		l.pos++
		return token{kind: tokRBracket, text: "]", pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, text: ",", pos: start}, nil
	case c == ':':
		l.pos++
		return token{kind: tokColon, text: ":", pos: start}, nil
	case c == '<':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return token{kind: tokLe, text: "<=", pos: start}, nil
		}
		return token{kind: tokLt, text: "<", pos: start}, nil
	case c == '>':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return token{kind: tokGe, text: ">=", pos: start}, nil
		}
		return token{kind: tokGt, text: ">", pos: start}, nil
	case c == '=':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return token{kind: tokEq, text: "==", pos: start}, nil
		}
		return token{kind: tokAssign, text: "=", pos: start}, nil
	case c == '!':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return token{kind: tokNe, text: "!=", pos: start}, nil
		}
		return token{}, l.errorf(start, "unexpected character !, did you mean !=?")
	case c == '\'' || c == '"':
		return l.lexString(c)
	case isDigit(c):
		return l.lexNumber()
	case isIdentStart(c):
		return l.lexIdent()
	default:
		return token{}, l.errorf(start, "unexpected character "+string(c))
	}
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, l.errorf(start, "unterminated string literal")
		}
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			return token{kind: tokStr, text: b.String(), pos: start}, nil
		}
		b.WriteByte(c)
		l.pos++
	}
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	isFloat := false
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.peekByte() == '.' {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if c := l.peekByte(); c == 'e' || c == 'E' {
		save := l.pos
		l.pos++
		if c := l.peekByte(); c == '+' || c == '-' {
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			isFloat = true
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	text := l.src[start:l.pos]
	kind := tokInt
	if isFloat {
		kind = tokFloat
	}
	return token{kind: kind, text: text, pos: start}, nil
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	return token{kind: tokIdent, text: l.src[start:l.pos], pos: start}, nil
}
