package lexer

import "fmt"

// SyntaxError reports a malformed token at a specific template offset.
// It is converted into blueprint.TemplateSyntaxError by the compiler; kept
// here (rather than duplicated) because the lexer is where the offset is
// first known, mirroring the teacher's own NewSyntaxError(expected, got,
// line, column) call shape in pkg/parser/parser.go.
type SyntaxError struct {
	Pos     int
	Line    int
	Column  int
	Message string
}

func newSyntaxError(pos, line, column int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}
