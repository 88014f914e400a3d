package blueprint

import "github.com/dynsqlgo/dynsql/pkg/lexer"

// parenKind classifies a '(' token the way spec.md §4.3 requires, decided
// once up front for the whole token stream rather than re-derived by the
// segment builder every time a paren is revisited.
type parenKind int

const (
	parenFunctional parenKind = iota
	parenSubquery
)

// classifyParens walks the flat token stream and returns, for every
// ParenOpen token index, whether it opens a sub-query or a functional
// paren, per spec.md §4.3:
//
//	A '(' is a sub-query paren if the immediately preceding non-whitespace
//	token is IN/EXISTS/ANY/ALL/a relational operator/a sub-query-introducing
//	section keyword, or if the first token inside (after whitespace) is SELECT.
func classifyParens(toks []lexer.Token) map[int]parenKind {
	kinds := make(map[int]parenKind)
	for i, t := range toks {
		if t.Type != lexer.ParenOpen {
			continue
		}
		if precedingIntroducesSubquery(toks, i) || firstInsideIsSelect(toks, i) {
			kinds[i] = parenSubquery
		} else {
			kinds[i] = parenFunctional
		}
	}
	return kinds
}

func precedingIntroducesSubquery(toks []lexer.Token, parenIdx int) bool {
	for j := parenIdx - 1; j >= 0; j-- {
		t := toks[j]
		if isTransparent(t) {
			continue
		}
		upper := upperLiteral(t)
		switch t.Type {
		case lexer.Keyword:
			return lexer.IsRelationalOperator(upper)
		case lexer.SectionKeyword:
			return lexer.IsSubqueryIntroducer(upper)
		default:
			return false
		}
	}
	return false
}

func firstInsideIsSelect(toks []lexer.Token, parenIdx int) bool {
	for j := parenIdx + 1; j < len(toks); j++ {
		t := toks[j]
		if isTransparent(t) {
			continue
		}
		return t.Type == lexer.SectionKeyword && upperLiteral(t) == "SELECT"
	}
	return false
}

// isTransparent reports whether a token contributes nothing to boundary
// decisions: whitespace and plain text runs.
func isTransparent(t lexer.Token) bool {
	return t.Type == lexer.Ws
}

func upperLiteral(t lexer.Token) string {
	return upper(t.Literal)
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// tokenizeAll drains a lexer.Lexer into a slice, the random-access form the
// recursive-descent builder needs (unlike the teacher's parser, which only
// ever needs a two-token lookahead over a forward-only stream).
func tokenizeAll(l *lexer.Lexer) []lexer.Token {
	var toks []lexer.Token
	for {
		t := l.NextToken()
		toks = append(toks, t)
		if t.Type == lexer.EOF {
			break
		}
	}
	return toks
}
