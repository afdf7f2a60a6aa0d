// Package inspect implements the classify command.
package inspect

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/broady/schemakit/cmd/schemakit/internal/options"
	"github.com/broady/schemakit/schemagen"
)

type Cmd struct {
	options.Flags `embed:""`
}

func (c *Cmd) Run() error {
	cfg, err := c.Config(nil)
	if err != nil {
		return err
	}
	reports, err := schemagen.Inspect(context.Background(), cfg, schemagen.Options{
		Logger: c.Logger(),
	})
	if err != nil {
		return err
	}
	return Print(os.Stdout, reports)
}

// Print writes one block per type: the type's description, then one line
// per property with its name, kind, format, required and nullable flags.
func Print(w io.Writer, reports []schemagen.TypeReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\t%s\n", r.Type, r.Description)
		for _, m := range r.Members {
			kind := m.Description.Kind.String()
			if kind == "" {
				kind = "any"
			}
			format := m.Description.Format
			if format == "" {
				format = "-"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", m.Name, kind, format, flag(m.Required, "required"), flag(m.Nullable, "nullable"))
		}
	}
	return tw.Flush()
}

func flag(set bool, name string) string {
	if set {
		return name
	}
	return "-"
}
