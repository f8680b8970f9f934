// Package path compiles dot/bracket path expressions such as
// "orders[0].items[*].sku" into token sequences. Compilation is pure;
// callers applying one expression across many records compile once and
// reuse the result.
package path

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath indicates a malformed path expression, such as an
// unmatched bracket or a non-integer index.
var ErrInvalidPath = errors.New("path: invalid path expression")

// TokenKind discriminates the path token variants.
type TokenKind uint8

const (
	// Key accesses an object field by name.
	Key TokenKind = iota + 1
	// Index accesses an array position; negative values count from the end.
	Index
	// Wildcard fans out to every element of an array or every value of an object.
	Wildcard
)

// Token is a single step of a compiled path expression.
type Token struct {
	Kind  TokenKind
	Name  string // set for Key tokens
	Index int    // set for Index tokens
}

// Expression is an ordered sequence of tokens. The empty expression
// addresses the whole document.
type Expression []Token

// Compile parses raw into an Expression. The grammar is a sequence of
// ".name" segments and "[index]"/"[*]" segments; a leading name needs no
// dot. An empty input compiles to the empty expression.
func Compile(raw string) (Expression, error) {
	if raw == "" {
		return nil, nil
	}

	var expr Expression
	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '.':
			i++
		case '[':
			end := strings.IndexByte(raw[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unmatched '[' in %q", ErrInvalidPath, raw)
			}
			inner := raw[i+1 : i+end]
			if inner == "*" {
				expr = append(expr, Token{Kind: Wildcard})
			} else {
				idx, err := strconv.Atoi(inner)
				if err != nil {
					return nil, fmt.Errorf("%w: invalid index %q in %q", ErrInvalidPath, inner, raw)
				}
				expr = append(expr, Token{Kind: Index, Index: idx})
			}
			i += end + 1
		case ']':
			return nil, fmt.Errorf("%w: unexpected ']' in %q", ErrInvalidPath, raw)
		default:
			j := i
			for j < len(raw) && raw[j] != '.' && raw[j] != '[' && raw[j] != ']' {
				j++
			}
			expr = append(expr, Token{Kind: Key, Name: raw[i:j]})
			i = j
		}
	}
	return expr, nil
}

// String reconstructs the canonical textual form of the expression.
func (e Expression) String() string {
	var b strings.Builder
	for i, tok := range e {
		switch tok.Kind {
		case Key:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(tok.Name)
		case Index:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(tok.Index))
			b.WriteByte(']')
		case Wildcard:
			b.WriteString("[*]")
		}
	}
	return b.String()
}
