package horntail

import "strings"

// PlainProperty is a node in the plain-text property grammar: either a
// single-line value or a nested block of child properties (never both).
type PlainProperty struct {
	Name     string
	Value    string
	Children []PlainProperty
}

// decodePlainTextProperties treats the remainder of b as ASCII/UTF-8 text
// and parses it under the grammar in §4.10:
//
//	property := identifier '=' ( '{' property* '}' | rest-of-line )
//
// Ill-formed nesting simply ends the list early rather than erroring, per
// the original grammar's forgiving behavior.
func decodePlainTextProperties(b *ByteStream) ([]NamedProperty, error) {
	rest, err := b.ReadSlice(b.Remaining())
	if err != nil {
		return nil, err
	}
	lx := newLexer(string(rest))
	props := parsePlainBlock(lx, false)
	return toNamedProperties(props), nil
}

func toNamedProperties(props []PlainProperty) []NamedProperty {
	out := make([]NamedProperty, 0, len(props))
	for _, p := range props {
		if p.Children != nil {
			out = append(out, NamedProperty{Name: p.Name, Children: toNamedProperties(p.Children)})
			continue
		}
		out = append(out, NamedProperty{Name: p.Name, Value: Primitive{Kind: PrimitiveString, Str: p.Value}})
	}
	return out
}

// tokenKind enumerates the plain-text lexer's token classes: identifier
// runs, the three structural characters, and end of input.
type tokenKind int

const (
	tokIdent tokenKind = iota
	tokEqual
	tokLeftBrace
	tokRightBrace
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

// lexer tokenizes the plain-text grammar: '=', '{', '}', and newlines are
// structural; everything else is either whitespace (a separator) or part of
// an identifier/value run.
type lexer struct {
	src []rune
	pos int
}

func newLexer(s string) *lexer { return &lexer{src: []rune(s)} }

func (l *lexer) peekByte() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) skipWhitespace() {
	for {
		r, ok := l.peekByte()
		if !ok || (r != ' ' && r != '\t' && r != '\r') {
			return
		}
		l.pos++
	}
}

// nextToken returns the next structural token or an identifier run, used by
// the property parser.
func (l *lexer) nextToken() token {
	l.skipWhitespace()
	r, ok := l.peekByte()
	if !ok {
		return token{kind: tokEOF}
	}
	switch r {
	case '=':
		l.pos++
		return token{kind: tokEqual}
	case '{':
		l.pos++
		return token{kind: tokLeftBrace}
	case '}':
		l.pos++
		return token{kind: tokRightBrace}
	case '\n':
		// a newline between properties is consumed and reported as an
		// empty identifier, which the parser skips.
		l.pos++
		return token{kind: tokIdent}
	}
	start := l.pos
	for {
		r, ok := l.peekByte()
		if !ok || r == '=' || r == '{' || r == '}' || r == '\n' {
			break
		}
		l.pos++
	}
	return token{kind: tokIdent, text: strings.TrimSpace(string(l.src[start:l.pos]))}
}

// restOfLine consumes and returns everything up to (and past) the next
// newline, used for a property's scalar value.
func (l *lexer) restOfLine() string {
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
	line := strings.TrimSpace(string(l.src[start:l.pos]))
	if l.pos < len(l.src) {
		l.pos++ // consume the newline
	}
	return line
}

// parsePlainBlock parses property* until EOF (top level) or a closing brace
// (nested block), per the grammar in §4.10.
func parsePlainBlock(l *lexer, nested bool) []PlainProperty {
	var out []PlainProperty
	for {
		save := l.pos
		tok := l.nextToken()
		switch tok.kind {
		case tokEOF:
			return out
		case tokRightBrace:
			if nested {
				return out
			}
			l.pos = save
			return out
		case tokIdent:
			if tok.text == "" {
				continue
			}
			eq := l.nextToken()
			if eq.kind != tokEqual {
				// Ill-formed: end the list rather than erroring.
				return out
			}
			l.skipWhitespace()
			if r, ok := l.peekByte(); ok && r == '{' {
				l.pos++
				children := parsePlainBlock(l, true)
				out = append(out, PlainProperty{Name: tok.text, Children: children})
			} else {
				out = append(out, PlainProperty{Name: tok.text, Value: l.restOfLine()})
			}
		default:
			return out
		}
	}
}
