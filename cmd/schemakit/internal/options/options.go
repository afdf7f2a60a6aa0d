// Package options turns command line flags into a generator configuration.
package options

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/broady/schemakit/schemagen"
)

// Flags are the configuration flags shared by the commands.
type Flags struct {
	Package []string `help:"Go package to analyze (repeatable)." short:"p"`
	Type    []string `help:"Root type name (repeatable, default: all exported types)." short:"t"`
	Dialect string   `help:"Schema dialect: jsonschema, openapi3 or swagger2." short:"d"`
	Set     []string `help:"Set a config value as key=value (repeatable), e.g. --set case_format=lc." placeholder:"KEY=VALUE" sep:"none"`
	Verbose bool     `help:"Log each generated type." short:"v"`
}

// Values collects the flags as config values. Explicit flags are added to
// the values given with --set.
func (f *Flags) Values() (url.Values, error) {
	values := url.Values{}
	for _, kv := range f.Set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (expected key=value)", kv)
		}
		values.Add(key, value)
	}
	for _, pkg := range f.Package {
		values.Add("package", pkg)
	}
	for _, name := range f.Type {
		values.Add("type", name)
	}
	if f.Dialect != "" {
		values.Set("dialect", f.Dialect)
	}
	return values, nil
}

// Config parses the flags, with extra values applied last.
func (f *Flags) Config(extra url.Values) (*schemagen.Config, error) {
	values, err := f.Values()
	if err != nil {
		return nil, err
	}
	for key, vs := range extra {
		values[key] = vs
	}
	return schemagen.ParseConfig(values)
}

// Logger returns a text logger on stderr, at debug level when verbose.
func (f *Flags) Logger() *slog.Logger {
	level := slog.LevelInfo
	if f.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
