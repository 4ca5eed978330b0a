package treefile

import "fmt"

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokQuestion
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokComma
	tokIllegal
)

var tokenNames = map[tokenType]string{
	tokEOF:      "end of type",
	tokIdent:    "identifier",
	tokQuestion: "'?'",
	tokLBracket: "'['",
	tokRBracket: "']'",
	tokLParen:   "'('",
	tokRParen:   "')'",
	tokComma:    "','",
	tokIllegal:  "illegal character",
}

func (t tokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

type token struct {
	typ    tokenType
	value  string
	column int
}

// lexer tokenizes type strings such as "[]int?" or "func(int, str) bool"
type lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || ch >= '0' && ch <= '9' || ch == '.'
}

func (l *lexer) next() token {
	l.skipWhitespace()
	tok := token{column: l.position + 1}
	switch l.ch {
	case 0:
		tok.typ = tokEOF
		return tok
	case '?':
		tok.typ = tokQuestion
	case '[':
		tok.typ = tokLBracket
	case ']':
		tok.typ = tokRBracket
	case '(':
		tok.typ = tokLParen
	case ')':
		tok.typ = tokRParen
	case ',':
		tok.typ = tokComma
	default:
		if isIdentStart(l.ch) {
			start := l.position
			for isIdentChar(l.ch) {
				l.readChar()
			}
			tok.typ = tokIdent
			tok.value = l.input[start:l.position]
			return tok
		}
		tok.typ = tokIllegal
		tok.value = string(l.ch)
	}
	l.readChar()
	return tok
}
