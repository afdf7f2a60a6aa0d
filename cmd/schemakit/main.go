package main

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/broady/schemakit/cmd/schemakit/internal/gen"
	"github.com/broady/schemakit/cmd/schemakit/internal/inspect"
)

type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Print version information."`
	Gen      gen.Cmd     `cmd:"" help:"Generate JSON Schema documents for Go types."`
	Classify inspect.Cmd `cmd:"" help:"Print the classification of a type's properties without generating files."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("schemakit"),
		kong.Description("Generate JSON Schema and OpenAPI schemas from Go types."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
