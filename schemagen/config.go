package schemagen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/broady/schemakit/schemagen/naming"
	"github.com/broady/schemakit/schemagen/sink"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

// Config holds the configuration for schema generation.
type Config struct {
	// OutDir is the directory where schema documents are written.
	// Empty keeps the documents in memory.
	OutDir string `schema:"out_dir"`

	// Provider selects the type extraction strategy.
	// "source" (default) - uses go/packages for enums and doc comments
	// "reflection" - uses runtime reflection, enums must be registered
	Provider string `schema:"provider" validate:"omitempty,oneof=source reflection"`

	// Packages are the Go package paths to analyze with the source provider.
	// e.g. []string{"github.com/myorg/myapp/api"}
	Packages []string `schema:"package" validate:"required_if=Provider source"`

	// Types are the root type names to generate with the source provider.
	// Empty means every exported type of Packages.
	Types []string `schema:"type"`

	// Dialect is the schema flavour: "jsonschema" (default), "openapi3" or
	// "swagger2". It selects the file kind and the nullable encoding.
	Dialect string `schema:"dialect" validate:"omitempty,oneof=jsonschema openapi3 swagger2"`

	// NullHandling applies to reference types (slices, maps, interfaces)
	// without explicit nullability: "nullable" (default) or "notnull".
	NullHandling string `schema:"null_handling" validate:"omitempty,oneof=nullable notnull"`

	// CaseFormat converts member names without a json name, as a tagly case
	// format code: "lc" (lowerCamel), "uc" (UpperCamel), "lu" (lower_underscore),
	// "uu" (UPPER_UNDERSCORE), "l" (lower), "u" (UPPER). Empty keeps Go names.
	CaseFormat string `schema:"case_format" validate:"omitempty,caseformat"`

	// Flatten lets derived members replace embedded members with the same
	// property name instead of failing.
	Flatten bool `schema:"flatten"`

	// OptIn keeps only members tagged jsonschema:"member" or "include".
	OptIn bool `schema:"opt_in"`

	// Format is the output format: "json" (default) or "yaml".
	Format string `schema:"format" validate:"omitempty,oneof=json yaml"`
}

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	err := validate.RegisterValidation("caseformat", func(fl validator.FieldLevel) bool {
		return naming.IsCaseFormat(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("schemagen: register caseformat validation: %v", err))
	}
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	// Field is the configuration key, as used by ParseConfig.
	Field string

	// Message describes the constraint that failed.
	Message string

	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ParseConfig decodes a configuration from key/value pairs, as given on the
// command line with --set key=value. Keys are the schema tags of Config;
// repeated keys fill list fields. Defaults are applied and the result is
// validated.
func ParseConfig(values url.Values) (*Config, error) {
	var cfg Config
	if err := schemaDecoder.Decode(&cfg, values); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	result := applyConfigDefaults(&cfg)
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// Validate checks the configuration. The first failing field is returned as
// a *ConfigError wrapping the validator errors.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) || len(valErrs) == 0 {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	fe := valErrs[0]
	return &ConfigError{
		Field:   configKey(fe.StructField()),
		Message: formatValidationError(fe),
		Err:     valErrs,
	}
}

// configKey returns the schema tag of a Config field.
func configKey(field string) string {
	switch field {
	case "OutDir":
		return "out_dir"
	case "NullHandling":
		return "null_handling"
	case "CaseFormat":
		return "case_format"
	case "OptIn":
		return "opt_in"
	case "Packages":
		return "package"
	case "Types":
		return "type"
	}
	return strings.ToLower(field)
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "caseformat":
		return fmt.Sprintf("unknown case format %q (expected one of: lc, uc, lu, uu, l, u)", fe.Value())
	default:
		return fmt.Sprintf("failed on %s validation", fe.Tag())
	}
}

// applyConfigDefaults applies default values to Config.
func applyConfigDefaults(cfg *Config) *Config {
	// Make a copy to avoid mutating the input
	result := *cfg

	if result.Provider == "" {
		result.Provider = "source"
	}
	if result.Dialect == "" {
		result.Dialect = "jsonschema"
	}
	if result.NullHandling == "" {
		result.NullHandling = "nullable"
	}
	if result.Format == "" {
		result.Format = "json"
	}

	return &result
}

// Generator provides a fluent API for schema generation.
// Create with FromTypes() or FromPackages() and configure with method chaining.
//
// Example:
//
//	schemagen.FromPackages("github.com/myorg/myapp/api").
//	    Types("User", "Order").
//	    Dialect("openapi3").
//	    ToDir("./schemas")
type Generator struct {
	types []reflect.Type
	cfg   Config
	opts  Options
}

// FromTypes creates a Generator for the given values' types.
// Pass zero values of the types you want schemas for.
//
// By default, this uses the source provider for enum and comment support:
// the packages and type names are taken from the values. Use
// .Provider("reflection") to skip source analysis; enums then need .Enum().
func FromTypes(types ...any) *Generator {
	g := &Generator{}
	for _, v := range types {
		t := reflect.TypeOf(v)
		if t == nil {
			continue
		}
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		g.types = append(g.types, t)
	}
	return g
}

// FromPackages creates a Generator for types of the given packages, using
// the source provider. Without .Types() every exported type is generated.
func FromPackages(pkgs ...string) *Generator {
	g := &Generator{}
	g.cfg.Packages = pkgs
	return g
}

// Provider sets the type extraction strategy ("source" or "reflection").
func (g *Generator) Provider(p string) *Generator {
	g.cfg.Provider = p
	return g
}

// Types restricts the source provider to the named root types.
func (g *Generator) Types(names ...string) *Generator {
	g.cfg.Types = append(g.cfg.Types, names...)
	return g
}

// Dialect sets the schema flavour ("jsonschema", "openapi3" or "swagger2").
func (g *Generator) Dialect(d string) *Generator {
	g.cfg.Dialect = d
	return g
}

// NullHandling sets the nullability of unannotated reference types
// ("nullable" or "notnull").
func (g *Generator) NullHandling(mode string) *Generator {
	g.cfg.NullHandling = mode
	return g
}

// CaseFormat sets the case format of property names without a json name.
func (g *Generator) CaseFormat(code string) *Generator {
	g.cfg.CaseFormat = code
	return g
}

// Flatten lets derived members replace embedded members with the same
// property name on every type.
func (g *Generator) Flatten() *Generator {
	g.cfg.Flatten = true
	return g
}

// OptIn keeps only marked members on every type.
func (g *Generator) OptIn() *Generator {
	g.cfg.OptIn = true
	return g
}

// Format sets the output format ("json" or "yaml").
func (g *Generator) Format(f string) *Generator {
	g.cfg.Format = f
	return g
}

// Enum registers the values of an enum type for the reflection provider.
func (g *Generator) Enum(values ...any) *Generator {
	if len(values) == 0 {
		return g
	}
	if g.opts.Enums == nil {
		g.opts.Enums = make(map[reflect.Type][]any)
	}
	t := reflect.TypeOf(values[0])
	g.opts.Enums[t] = append(g.opts.Enums[t], values...)
	return g
}

// WithLogger sets the logger for progress and warnings.
func (g *Generator) WithLogger(l *slog.Logger) *Generator {
	g.opts.Logger = l
	return g
}

// WithSink sets the output sink, overriding ToDir's directory.
func (g *Generator) WithSink(s sink.OutputSink) *Generator {
	g.opts.Sink = s
	return g
}

// ToDir generates files to the specified directory.
// This is a terminal operation that writes files to disk.
func (g *Generator) ToDir(dir string) (*GenerateResult, error) {
	g.cfg.OutDir = dir
	return g.Generate(context.Background())
}

// Generate runs the generation. Without ToDir or WithSink the documents
// are kept in memory and returned in the result only.
func (g *Generator) Generate(ctx context.Context) (*GenerateResult, error) {
	cfg, opts := g.config()
	return Generate(ctx, cfg, opts)
}

// Inspect classifies the root types without generating documents.
func (g *Generator) Inspect(ctx context.Context) ([]TypeReport, error) {
	cfg, opts := g.config()
	return Inspect(ctx, cfg, opts)
}

// config derives the run inputs from the collected types.
func (g *Generator) config() (*Config, Options) {
	cfg := g.cfg
	opts := g.opts
	if len(g.types) == 0 {
		return &cfg, opts
	}
	if cfg.Provider == "reflection" {
		opts.RootTypes = slices.Clone(g.types)
		return &cfg, opts
	}
	for _, t := range g.types {
		if t.PkgPath() != "" && !slices.Contains(cfg.Packages, t.PkgPath()) {
			cfg.Packages = append(cfg.Packages, t.PkgPath())
		}
		if t.Name() != "" && !slices.Contains(cfg.Types, t.Name()) {
			cfg.Types = append(cfg.Types, t.Name())
		}
	}
	return &cfg, opts
}
