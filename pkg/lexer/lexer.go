package lexer

import (
	"strings"
	"unicode"
)

// defaultPrefix is the variable prefix rune used by New when no explicit
// prefix is supplied. SetDefaultPrefix changes it process-wide, but only
// for Lexers constructed after the call returns (SPEC_FULL.md §3.1).
var defaultPrefix rune = '@'

// SetDefaultPrefix overrides the process-wide default variable prefix
// rune. Templates already compiled, and Lexers already constructed, are
// unaffected.
func SetDefaultPrefix(r rune) {
	defaultPrefix = r
}

// DefaultPrefix returns the current process-wide default prefix rune.
func DefaultPrefix() rune {
	return defaultPrefix
}

// Lexer scans a dynsql template into a Token stream, one token per call to
// NextToken. It holds no lookahead of its own; callers wanting lookahead
// keep their own buffer (the segment builder drains the whole stream into
// a slice up front).
type Lexer struct {
	input  string
	prefix rune

	pos     int // byte offset of the next unread rune
	line    int
	lineOff int // byte offset of the start of the current line

	errs []error
}

// New constructs a Lexer over input using the current default prefix rune.
func New(input string) *Lexer {
	return NewWithPrefix(input, defaultPrefix)
}

// NewWithPrefix constructs a Lexer over input using an explicit prefix rune.
func NewWithPrefix(input string, prefix rune) *Lexer {
	return &Lexer{input: input, prefix: prefix, line: 1}
}

// Errors returns the syntax errors accumulated while scanning so far.
func (l *Lexer) Errors() []error { return l.errs }

func (l *Lexer) addErrorf(pos int, format string, args ...any) {
	l.errs = append(l.errs, newSyntaxError(pos, l.lineOf(pos), l.columnOf(pos), format, args...))
}

func (l *Lexer) lineOf(pos int) int {
	return 1 + strings.Count(l.input[:pos], "\n")
}

func (l *Lexer) columnOf(pos int) int {
	if i := strings.LastIndexByte(l.input[:pos], '\n'); i >= 0 {
		return pos - i
	}
	return pos + 1
}

func (l *Lexer) eof() bool { return l.pos >= len(l.input) }

func (l *Lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) byteAt(off int) byte {
	if l.pos+off >= len(l.input) {
		return 0
	}
	return l.input[l.pos+off]
}

func (l *Lexer) make(tt TokenType, start int, literal string) Token {
	return Token{
		Type:     tt,
		Literal:  literal,
		Position: start,
		Line:     l.lineOf(start),
		Column:   l.columnOf(start),
	}
}

// NextToken scans and returns the next token in the stream, terminating
// with a single EOF token once the input is exhausted.
func (l *Lexer) NextToken() Token {
	if l.eof() {
		return l.make(EOF, l.pos, "")
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		return l.scanWhitespace(start)
	case c == '\'':
		return l.scanStringLiteral(start)
	case c == '/' && l.byteAt(1) == '*':
		return l.scanComment(start)
	case c == rune2byte(l.prefix):
		return l.scanVariable(start, false)
	case c == '?':
		return l.scanQuestion(start)
	case c == '&':
		return l.scanContextJoin(start)
	case c == '(':
		l.pos++
		return l.make(ParenOpen, start, "(")
	case c == ')':
		l.pos++
		return l.make(ParenClose, start, ")")
	case c == ',':
		l.pos++
		return l.make(LogicalOp, start, ",")
	case isIdentStart(rune(c)):
		return l.scanWord(start)
	case isOperatorByte(c):
		return l.scanOperator(start)
	default:
		l.pos++
		return l.make(Text, start, string(c))
	}
}

func rune2byte(r rune) byte {
	if r < 128 {
		return byte(r)
	}
	return 0
}

func (l *Lexer) scanWhitespace(start int) Token {
	for !l.eof() {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return l.make(Ws, start, l.input[start:l.pos])
		}
	}
	return l.make(Ws, start, l.input[start:l.pos])
}

func (l *Lexer) scanStringLiteral(start int) Token {
	l.pos++ // consume opening quote
	for !l.eof() {
		switch l.input[l.pos] {
		case '\'':
			// doubled quote is an escaped quote inside the literal.
			if l.byteAt(1) == '\'' {
				l.pos += 2
				continue
			}
			l.pos++
			return l.make(StringLit, start, l.input[start:l.pos])
		default:
			l.pos++
		}
	}
	l.addErrorf(start, "unterminated string literal")
	return l.make(StringLit, start, l.input[start:l.pos])
}

// scanComment handles /*...*/ including the /*~ literal hint */ form.
func (l *Lexer) scanComment(start int) Token {
	l.pos += 2 // consume "/*"
	bodyStart := l.pos
	for !l.eof() {
		if l.input[l.pos] == '*' && l.byteAt(1) == '/' {
			body := l.input[bodyStart:l.pos]
			l.pos += 2
			trimmed := strings.TrimSpace(body)
			if strings.HasPrefix(trimmed, "~") {
				hint := strings.TrimSpace(strings.TrimPrefix(trimmed, "~"))
				tok := l.make(LiteralHint, start, hint)
				return tok
			}
			return l.make(Comment, start, trimmed)
		}
		l.pos++
	}
	l.addErrorf(start, "unterminated comment")
	return l.make(Comment, start, strings.TrimSpace(l.input[bodyStart:l.pos]))
}

// scanVariable handles @Name, @Name_L, and (via scanQuestion) the ?@ forms.
// optional is true when the variable was reached through a leading '?'.
func (l *Lexer) scanVariable(start int, optional bool) Token {
	l.pos++ // consume the prefix rune
	nameStart := l.pos
	if l.eof() || !isIdentStart(rune(l.input[l.pos])) {
		l.addErrorf(start, "malformed variable: expected identifier after prefix")
		return l.make(Variable, start, "")
	}
	l.pos++
	for !l.eof() && isIdentCont(rune(l.input[l.pos])) {
		l.pos++
	}
	name := l.input[nameStart:l.pos]

	var handlerLetter byte
	if idx := strings.LastIndexByte(name, '_'); idx >= 0 && idx == len(name)-2 {
		letter := name[idx+1]
		if isASCIILetter(letter) {
			handlerLetter = upperByte(letter)
			name = name[:idx]
		}
	}

	tok := l.make(Variable, start, name)
	tok.Optional = optional
	tok.HandlerLetter = handlerLetter
	return tok
}

// scanQuestion disambiguates '?' into ForcedBoundary ("???"), an optional
// variable ("?@Var"), a dynamic projection marker ("?SELECT"), or, failing
// both, a syntax error.
func (l *Lexer) scanQuestion(start int) Token {
	if l.byteAt(1) == '?' && l.byteAt(2) == '?' {
		l.pos += 3
		return l.make(ForcedBoundary, start, "???")
	}
	if l.byteAt(1) == rune2byte(l.prefix) {
		l.pos++ // consume '?'
		return l.scanVariable(start, true)
	}
	// Look ahead past whitespace for a bare "SELECT" word.
	save := l.pos
	l.pos++
	for !l.eof() && isWsByte(l.input[l.pos]) {
		l.pos++
	}
	wordStart := l.pos
	for !l.eof() && isIdentCont(rune(l.input[l.pos])) {
		l.pos++
	}
	word := l.input[wordStart:l.pos]
	if strings.EqualFold(word, "SELECT") {
		l.pos = save + 1 // only the '?' itself is consumed
		return l.make(DynamicSelectMarker, start, "?")
	}
	l.pos = save + 1
	l.addErrorf(start, "malformed token: '?' not followed by %q, a variable, or '??'", l.prefix)
	return l.make(ILLEGAL, start, "?")
}

// scanContextJoin handles "&AND", "&OR" and "&,"; a bare '&' with no
// matching operator is returned as plain text (e.g. a bitwise operator in
// ordinary SQL text).
func (l *Lexer) scanContextJoin(start int) Token {
	save := l.pos
	l.pos++
	if l.peekByte() == ',' {
		l.pos++
		return l.make(ContextJoin, start, ",")
	}
	wordStart := l.pos
	for !l.eof() && isIdentCont(rune(l.input[l.pos])) {
		l.pos++
	}
	word := strings.ToUpper(l.input[wordStart:l.pos])
	if word == "AND" || word == "OR" {
		return l.make(ContextJoin, start, word)
	}
	l.pos = save + 1
	return l.make(Text, start, "&")
}

// multiWordSection maps a leading keyword to the additional words (already
// upper-cased) that complete a multi-word section keyword, in priority order.
var multiWordSection = map[string][][]string{
	"GROUP": {{"BY"}},
	"ORDER": {{"BY"}},
	"UNION": {{"ALL"}},
	"INNER": {{"JOIN"}},
	"LEFT":  {{"JOIN"}},
	"RIGHT": {{"JOIN"}},
	"FULL":  {{"JOIN"}},
	"CROSS": {{"JOIN"}},
}

func (l *Lexer) scanWord(start int) Token {
	l.pos++
	for !l.eof() && isIdentCont(rune(l.input[l.pos])) {
		l.pos++
	}
	word := l.input[start:l.pos]
	upper := strings.ToUpper(word)

	if IsLogicalOperator(upper) {
		return l.make(LogicalOp, start, upper)
	}

	if continuations, ok := multiWordSection[upper]; ok {
		for _, cont := range continuations {
			if end, canonical, ok := l.tryMatchWords(cont); ok {
				l.pos = end
				combined := upper + " " + canonical
				if IsSectionKeyword(combined) {
					return l.make(SectionKeyword, start, combined)
				}
			}
		}
	}

	if IsSectionKeyword(upper) {
		return l.make(SectionKeyword, start, upper)
	}

	if isKnownKeyword(upper) {
		return l.make(Keyword, start, upper)
	}

	return l.make(Text, start, word)
}

// tryMatchWords looks ahead (without committing l.pos) for whitespace
// followed by each word in words, in order, returning the byte offset just
// past the match and the canonical (upper-cased, space-joined) spelling.
func (l *Lexer) tryMatchWords(words []string) (end int, canonical string, ok bool) {
	p := l.pos
	var parts []string
	for _, want := range words {
		for p < len(l.input) && isWsByte(l.input[p]) {
			p++
		}
		wordStart := p
		for p < len(l.input) && isIdentCont(rune(l.input[p])) {
			p++
		}
		got := l.input[wordStart:p]
		if !strings.EqualFold(got, want) {
			return 0, "", false
		}
		parts = append(parts, strings.ToUpper(got))
	}
	return p, strings.Join(parts, " "), true
}

func (l *Lexer) scanOperator(start int) Token {
	l.pos++
	for !l.eof() && isOperatorByte(l.input[l.pos]) {
		l.pos++
	}
	op := l.input[start:l.pos]
	return l.make(Keyword, start, op)
}

func isWsByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isOperatorByte(b byte) bool {
	switch b {
	case '=', '<', '>', '!':
		return true
	}
	return false
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// knownKeywords covers the non-section, non-logical SQL keywords the
// lexer still tags distinctly so blueprint paren classification (§4.3)
// can recognise sub-query introducers such as IN/EXISTS/ANY/ALL.
var knownKeywords = map[string]bool{
	"AS": true, "IN": true, "EXISTS": true, "DISTINCT": true, "IS": true,
	"NULL": true, "LIKE": true, "BETWEEN": true, "TOP": true, "LIMIT": true,
	"ALL": true, "ANY": true, "ASC": true, "DESC": true,
}

func isKnownKeyword(upper string) bool { return knownKeywords[upper] }
