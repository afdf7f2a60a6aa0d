// Package schemagen generates JSON Schema documents from Go types.
//
// A run loads type metadata with a provider, classifies every type it meets,
// resolves the properties of object types and writes one schema document per
// root type to an output sink:
//
//	res, err := schemagen.FromTypes(api.User{}, api.Order{}).
//	    Dialect("openapi3").
//	    CaseFormat("lc").
//	    ToDir("./schemas")
package schemagen

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/broady/schemakit/schemagen/assemble"
	"github.com/broady/schemakit/schemagen/classify"
	"github.com/broady/schemakit/schemagen/meta"
	"github.com/broady/schemakit/schemagen/naming"
	"github.com/broady/schemakit/schemagen/property"
	"github.com/broady/schemakit/schemagen/provider"
	"github.com/broady/schemakit/schemagen/sink"
	"github.com/invopop/jsonschema"
)

// Options carries the inputs of a run that cannot be expressed as
// configuration values.
type Options struct {
	// RootTypes are the reflection provider roots.
	RootTypes []reflect.Type

	// Enums registers enum values for the reflection provider.
	Enums map[reflect.Type][]any

	// Dir is the directory the source provider resolves packages from.
	Dir string

	// Logger receives progress and warnings. Nil means slog.Default().
	Logger *slog.Logger

	// Sink receives the documents. Nil means a filesystem sink on
	// Config.OutDir, or memory when OutDir is empty.
	Sink sink.OutputSink
}

// Document is one generated schema document.
type Document struct {
	// Type is the full name of the root type.
	Type string

	// Path is the sink-relative output path.
	Path string

	Schema  *jsonschema.Schema
	Content []byte
}

// GenerateResult is the outcome of a run.
type GenerateResult struct {
	Documents []Document
	Warnings  []meta.Warning
}

// Generate builds and writes the schema documents for cfg.
func Generate(ctx context.Context, cfg *Config, opts Options) (*GenerateResult, error) {
	cfg = applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	built, err := buildTypes(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build types: %w", err)
	}
	resolver, err := newResolver(cfg)
	if err != nil {
		return nil, err
	}
	asm := assemble.New(resolver.Classifier(), resolver)

	out := opts.Sink
	if out == nil {
		if cfg.OutDir != "" {
			out = sink.NewFilesystemSink(cfg.OutDir)
		} else {
			out = sink.NewMemorySink()
		}
	}

	result := &GenerateResult{}
	paths := make(map[string]bool, len(built.Roots))
	for _, root := range built.Roots {
		logger.Debug("generating schema",
			slog.String("type", root.Type.FullName()),
			slog.String("dialect", cfg.Dialect))

		doc, err := asm.Schema(root)
		if err != nil {
			return nil, fmt.Errorf("failed to generate schema for %s: %w", root.Type.FullName(), err)
		}
		content, err := sink.Encode(doc, cfg.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema for %s: %w", root.Type.FullName(), err)
		}

		path := sink.FileName(root.Type.Name, cfg.Format)
		if paths[path] {
			path = sink.FileName(root.Type.FullName(), cfg.Format)
		}
		paths[path] = true
		if err := out.WriteFile(ctx, path, content); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}

		result.Documents = append(result.Documents, Document{
			Type:    root.Type.FullName(),
			Path:    path,
			Schema:  doc,
			Content: content,
		})
	}

	result.Warnings = append(slices.Clone(built.Warnings), asm.Warnings()...)
	for _, w := range result.Warnings {
		logger.Warn(w.Message, slog.String("code", w.Code), slog.String("type", w.TypeName))
	}
	return result, nil
}

// MemberReport is the resolved view of one property of a root type.
type MemberReport struct {
	Name        string
	Member      string
	Description classify.Description
	Required    bool
	Nullable    bool
}

// TypeReport is the classification of a root type and its properties.
type TypeReport struct {
	Type        string
	Description classify.Description
	Members     []MemberReport
}

// Inspect classifies the root types of cfg and resolves their properties
// without assembling documents.
func Inspect(ctx context.Context, cfg *Config, opts Options) ([]TypeReport, error) {
	cfg = applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	built, err := buildTypes(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build types: %w", err)
	}
	resolver, err := newResolver(cfg)
	if err != nil {
		return nil, err
	}

	reports := make([]TypeReport, 0, len(built.Roots))
	for _, root := range built.Roots {
		report := TypeReport{
			Type:        root.Type.FullName(),
			Description: resolver.Classifier().Classify(root),
		}
		if report.Description.Kind == classify.KindObject {
			decisions, err := resolver.Resolve(root)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %s: %w", report.Type, err)
			}
			for _, d := range decisions {
				report.Members = append(report.Members, MemberReport{
					Name:        d.Name,
					Member:      d.Member.Name,
					Description: d.Description,
					Required:    d.Required,
					Nullable:    d.IsNullable,
				})
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func buildTypes(ctx context.Context, cfg *Config, opts Options) (*provider.Result, error) {
	switch cfg.Provider {
	case "source":
		p := &provider.SourceProvider{}
		return p.BuildTypes(ctx, provider.SourceInputOptions{
			Packages:  cfg.Packages,
			RootTypes: cfg.Types,
			Dir:       opts.Dir,
		})
	case "reflection":
		p := &provider.ReflectionProvider{}
		return p.BuildTypes(ctx, provider.ReflectionInputOptions{
			RootTypes: opts.RootTypes,
			Enums:     opts.Enums,
		})
	default:
		return nil, fmt.Errorf("unknown provider: %q (expected \"source\" or \"reflection\")", cfg.Provider)
	}
}

func newResolver(cfg *Config) (*property.Resolver, error) {
	policy, err := classify.ParsePolicy(cfg.NullHandling)
	if err != nil {
		return nil, &ConfigError{Field: "null_handling", Message: err.Error(), Err: err}
	}
	c := classify.New(classify.Options{
		Policy:  policy,
		Dialect: classify.Dialect(cfg.Dialect),
	})

	ropts := property.Options{
		Flatten: cfg.Flatten,
		OptIn:   cfg.OptIn,
	}
	if cfg.CaseFormat != "" {
		policy, err := naming.NewCaseFormat(cfg.CaseFormat)
		if err != nil {
			return nil, &ConfigError{Field: "case_format", Message: err.Error(), Err: err}
		}
		ropts.Naming = policy
	}
	return property.New(c, ropts), nil
}
