package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/plotdeck/plotdeck/pkg/errors"
)

// lexer splits formula source into tokens. It is shared by the parser
// and by [RewriteRefs], which needs token offsets to splice renamed
// dataset references back into the original text.
type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

// next returns the following token, skipping whitespace.
func (l *lexer) next() (token, error) {
	l.skipSpace()

	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokenEOF, start: start, end: start}, nil
	}

	switch c := l.src[l.pos]; {
	case c == '+':
		return l.single(tokenPlus), nil
	case c == '-':
		return l.single(tokenMinus), nil
	case c == '*':
		return l.single(tokenStar), nil
	case c == '/':
		return l.single(tokenSlash), nil
	case c == '^':
		return l.single(tokenCaret), nil
	case c == '(':
		return l.single(tokenLParen), nil
	case c == ')':
		return l.single(tokenRParen), nil
	case c == ',':
		return l.single(tokenComma), nil
	case c == '`':
		return l.quotedIdent()
	case c >= '0' && c <= '9', c == '.':
		return l.number()
	default:
		r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
		if isIdentStart(r) {
			return l.ident(), nil
		}
		return token{}, errors.New(errors.ErrCodeParse,
			"unexpected character %q at offset %d", string(r), l.pos)
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func (l *lexer) single(kind tokenKind) token {
	t := token{kind: kind, text: l.src[l.pos : l.pos+1], start: l.pos, end: l.pos + 1}
	l.pos++
	return t
}

// number scans an unsigned float literal: 12, 1.5, .5, 1e-3, 2.5E+7.
func (l *lexer) number() (token, error) {
	start := l.pos
	seenDot := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c >= '0' && c <= '9' {
			l.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			l.pos++
			continue
		}
		if c == 'e' || c == 'E' {
			// Exponent, optionally signed. Only valid with digits after.
			mark := l.pos
			l.pos++
			if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
				l.pos++
			}
			if l.pos >= len(l.src) || l.src[l.pos] < '0' || l.src[l.pos] > '9' {
				l.pos = mark
				break
			}
			for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
				l.pos++
			}
			break
		}
		break
	}

	text := l.src[start:l.pos]
	if text == "." {
		return token{}, errors.New(errors.ErrCodeParse,
			"malformed number at offset %d", start)
	}
	return token{kind: tokenNumber, text: text, start: start, end: l.pos}, nil
}

// ident scans an unquoted identifier: a letter or underscore followed
// by letters, digits and underscores.
func (l *lexer) ident() token {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	return token{kind: tokenIdent, text: l.src[start:l.pos], start: start, end: l.pos}
}

// quotedIdent scans a backquoted dataset name: `time (s)`.
func (l *lexer) quotedIdent() (token, error) {
	start := l.pos
	l.pos++ // opening backquote
	rest := l.src[l.pos:]
	idx := strings.IndexByte(rest, '`')
	if idx < 0 {
		return token{}, errors.New(errors.ErrCodeParse,
			"unterminated quoted name starting at offset %d", start)
	}
	text := rest[:idx]
	l.pos += idx + 1
	if text == "" {
		return token{}, errors.New(errors.ErrCodeParse,
			"empty quoted name at offset %d", start)
	}
	return token{kind: tokenQuotedIdent, text: text, start: start, end: l.pos}, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// lexAll tokenizes the whole source, used by the parser and rewriter.
func lexAll(src string) ([]token, error) {
	l := newLexer(src)
	var tokens []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
		if t.kind == tokenEOF {
			return tokens, nil
		}
	}
}
