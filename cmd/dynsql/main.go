package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	_ "modernc.org/sqlite"
	"golang.org/x/term"

	"github.com/dynsqlgo/dynsql/internal/config"
	"github.com/dynsqlgo/dynsql/pkg/blueprint"
	"github.com/dynsqlgo/dynsql/pkg/handler"
	"github.com/dynsqlgo/dynsql/pkg/mapper"
	"github.com/dynsqlgo/dynsql/pkg/render"
	"github.com/dynsqlgo/dynsql/pkg/tlog"
)

const banner = `
     _                 _
  __| |_   _ _ __  ___ | |
 / _` + "`" + ` | | | | '_ \/ __|| |
| (_| | |_| | | | \__ \| |
 \__,_|\__, |_| |_|___/|_|
       |___/

 dynsql — conditional SQL templates, compiled once, rendered many.
`

// options mirrors the teacher's cmd/sqlparser flag struct, but is parsed
// with go-flags instead of the standard library's flag package, per
// SPEC_FULL.md's domain-stack wiring.
type options struct {
	Template     string   `short:"t" long:"template" description:"Inline dynsql template text"`
	TemplateFile string   `long:"template-file" description:"File containing a dynsql template"`
	Config       string   `long:"config" description:"Path to a YAML config file"`
	Use          []string `long:"use" description:"Mark a key present: NAME or NAME=VALUE, repeatable"`
	Verbose      bool     `short:"v" long:"verbose" description:"Pretty-print the compiled blueprint and bindings"`
	DemoDB       string   `long:"demo-db" description:"SQLite file (or ':memory:') to execute the rendered query against"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if opts.Config != "" {
		loaded, err := config.LoadConfig(opts.Config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not load config: %v\n", err)
		} else {
			cfg = loaded
		}
	}

	log := tlog.Nop()
	if opts.Verbose {
		log = tlog.NewDevelopment()
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print(banner)
	}

	templateText, err := resolveTemplate(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	bp, err := blueprint.Compile(templateText, blueprint.WithPrefix(cfg.PrefixRune()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
		os.Exit(1)
	}

	if opts.Verbose {
		pp.Println(bp)
	}

	st := render.NewBuilder(bp)
	for _, kv := range opts.Use {
		if name, value, ok := strings.Cut(kv, "="); ok {
			if err := st.UseValue(name, value); err != nil {
				log.Warnf("use %q: %v", kv, err)
			}
		} else {
			if err := st.Use(kv); err != nil {
				log.Warnf("use %q: %v", kv, err)
			}
		}
	}

	sqlText, bindings, err := render.NewRenderer(bp).Render(st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(sqlText)
	if opts.Verbose && len(bindings) > 0 {
		pp.Println(bindings)
	}

	if opts.DemoDB != "" {
		if err := runDemo(opts.DemoDB, sqlText, bindings, log); err != nil {
			fmt.Fprintf(os.Stderr, "demo-db error: %v\n", err)
			os.Exit(1)
		}
	}
}

func resolveTemplate(opts options) (string, error) {
	switch {
	case opts.Template != "":
		return opts.Template, nil
	case opts.TemplateFile != "":
		data, err := os.ReadFile(opts.TemplateFile)
		if err != nil {
			return "", fmt.Errorf("reading template file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("one of --template or --template-file is required")
	}
}

// sqliteBinder is the demo's mapper.Binder adapter for modernc.org/sqlite:
// SQLite's own parameter syntax already matches the Renderer's rendered
// "@Name" text, so Bind never needs to rewrite the query, only wrap each
// binding as a database/sql named argument.
type sqliteBinder struct{}

func (sqliteBinder) Bind(query string, bindings []handler.Binding) (string, []any, error) {
	args := make([]any, len(bindings))
	for i, b := range bindings {
		args[i] = sql.Named(b.Name, b.Value)
	}
	return query, args, nil
}

// runDemo executes the rendered SQL against a real SQLite database
// through sqliteBinder, proving the mapper.Binder/SchemaSignature
// collaborator contract against a real driver. Plain "@Name" variables
// with no handler letter (Letter == 0) produce no Binding and so are not
// bound here; they are meant for a caller-owned named-parameter pass, not
// this demo path.
func runDemo(dsn, query string, bindings []handler.Binding, log tlog.Logger) error {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("opening %q: %w", dsn, err)
	}
	defer db.Close()

	var binder mapper.Binder = sqliteBinder{}
	rewritten, args, err := binder.Bind(query, bindings)
	if err != nil {
		return fmt.Errorf("binding parameters: %w", err)
	}

	rows, err := db.Query(rewritten, args...)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	log.Infof("demo query returned columns: %v", cols)

	if types, err := rows.ColumnTypes(); err == nil {
		sig := mapper.SchemaSignature{Columns: make(map[string]string, len(types))}
		for _, ct := range types {
			sig.Columns[ct.Name()] = ct.DatabaseTypeName()
		}
		log.Infof("demo schema signature: %+v", sig)
	}

	n := 0
	for rows.Next() {
		n++
	}
	fmt.Printf("demo-db: %d row(s)\n", n)
	return rows.Err()
}
