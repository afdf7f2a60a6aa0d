package gen

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/broady/schemakit/cmd/schemakit/internal/options"
	"github.com/broady/schemakit/schemagen"
)

type Cmd struct {
	Out    string `arg:"" help:"Output directory for generated files."`
	Format string `help:"Output format: json or yaml (default: json)." short:"f"`

	options.Flags `embed:""`
}

func (c *Cmd) Run() error {
	// Resolve output directory to absolute path
	outDir, err := filepath.Abs(c.Out)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	cfg, err := c.config(outDir)
	if err != nil {
		return err
	}

	result, err := schemagen.Generate(context.Background(), cfg, schemagen.Options{
		Logger: c.Logger(),
	})
	if err != nil {
		return err
	}

	for _, doc := range result.Documents {
		fmt.Println(filepath.Join(outDir, doc.Path))
	}
	return nil
}

// config applies the output flags over the shared flags. An unset --format
// leaves a format given with --set in place.
func (c *Cmd) config(outDir string) (*schemagen.Config, error) {
	extra := url.Values{"out_dir": {outDir}}
	if c.Format != "" {
		extra.Set("format", c.Format)
	}
	return c.Config(extra)
}
