// Package blueprint compiles a dynsql template into an immutable,
// thread-safe Blueprint: a flat, ordered Segment tape plus the key
// registry and handler table a Renderer needs to walk it (SPEC_FULL.md
// §3.3, §3.6). Compilation happens once per distinct template text;
// Blueprints are meant to be compiled once and reused across many
// concurrent renders (spec.md §5).
package blueprint

import (
	"github.com/dynsqlgo/dynsql/pkg/handler"
	"github.com/dynsqlgo/dynsql/pkg/keyreg"
	"github.com/dynsqlgo/dynsql/pkg/lexer"
)

// Blueprint is the compiled, immutable form of a template. Every field is
// read-only after Compile returns.
type Blueprint struct {
	Source   string
	Prefix   rune
	Keys     *keyreg.Registry
	Handlers *handler.Registry
	Segments []Segment
	Scopes   []Scope
}

// Option configures a single Compile call.
type Option func(*options)

type options struct {
	prefix   rune
	handlers *handler.Registry
}

// WithPrefix overrides the variable-prefix rune for this compilation only.
func WithPrefix(r rune) Option {
	return func(o *options) { o.prefix = r }
}

// WithHandlers overrides the handler registry this compilation resolves
// letter suffixes against. Defaults to handler.DefaultRegistry().
func WithHandlers(r *handler.Registry) Option {
	return func(o *options) { o.handlers = r }
}

// Compile parses template into a Blueprint. It never mutates any
// process-wide state: it reads handler.DefaultRegistry() (or the
// registry WithHandlers supplies) and clones it into the result, so a
// later Register call on the live registry never retroactively changes
// an already-compiled Blueprint.
func Compile(template string, opts ...Option) (*Blueprint, error) {
	o := options{prefix: lexer.DefaultPrefix(), handlers: handler.DefaultRegistry()}
	for _, opt := range opts {
		opt(&o)
	}

	l := lexer.NewWithPrefix(template, o.prefix)
	toks := tokenizeAll(l)
	if errs := l.Errors(); len(errs) > 0 {
		if se, ok := errs[0].(*lexer.SyntaxError); ok {
			return nil, &TemplateSyntaxError{Position: se.Pos, Message: se.Message}
		}
		return nil, errs[0]
	}

	b := &builder{
		toks:     toks,
		parens:   classifyParens(toks),
		keys:     keyreg.New(),
		handlers: o.handlers.Clone(),
		prefix:   o.prefix,
	}
	b.build()
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	return &Blueprint{
		Source:   template,
		Prefix:   o.prefix,
		Keys:     b.keys,
		Handlers: b.handlers,
		Segments: b.segs,
		Scopes:   b.scopes,
	}, nil
}
