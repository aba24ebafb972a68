package path

import (
	"strings"

	"github.com/agentese/logos/internal/agenteseerr"
)

// lexer is a minimal byte-oriented scanner. Loci are reported as
// (byte offset, column) pairs, matching PathSyntaxError{locus}.
type lexer struct {
	s   string
	pos int
}

func newLexer(s string) *lexer {
	return &lexer{s: s}
}

func (l *lexer) atEnd() bool { return l.pos >= len(l.s) }

func (l *lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.s[l.pos]
}

func (l *lexer) locus() agenteseerr.Locus {
	return l.locusAt(l.pos)
}

func (l *lexer) locusAt(offset int) agenteseerr.Locus {
	return agenteseerr.Locus{Byte: offset, Column: offset + 1}
}

// consume advances past a single expected delimiter byte, returning whether
// it matched.
func (l *lexer) consume(b byte) bool {
	if l.peek() == b {
		l.pos++
		return true
	}
	return false
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == '-'
}

// nextIdent scans an identifier (segment/context/aspect/clause/annotation name).
// An empty identifier is a syntax error.
func (l *lexer) nextIdent() (string, error) {
	start := l.pos
	if !isIdentStart(l.peek()) {
		return "", agenteseerr.NewPathSyntaxError(l.s, l.locus(), "expected identifier")
	}
	for isIdentChar(l.peek()) {
		l.pos++
	}
	return l.s[start:l.pos], nil
}

// nextValue scans a clause/annotation value: everything up to the next
// '?' or '@' delimiter, or to end of input. A '.' does not end a value, so
// numeric values such as 0.3 are read whole.
func (l *lexer) nextValue() string {
	start := l.pos
	for !l.atEnd() {
		switch l.peek() {
		case '?', '@':
			return l.s[start:l.pos]
		}
		l.pos++
	}
	return strings.TrimSpace(l.s[start:l.pos])
}
