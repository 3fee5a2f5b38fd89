package tool

import (
	"github.com/spf13/cobra"

	"github.com/alpacahq/eventstore/cmd/tool/inspect"
	"github.com/alpacahq/eventstore/cmd/tool/integrity"
	"github.com/alpacahq/eventstore/cmd/tool/snapshot"
)

const (
	toolUsage     = "tool"
	toolShortDesc = "Executes tools as subcommands"
	toolLongDesc  = "This command executes the specified tool against a data file."
	toolExample   = "eventstore tool inspect [flags]"
)

var (
	// Cmd is the tool command.
	Cmd = &cobra.Command{
		Use:        toolUsage,
		Short:      toolShortDesc,
		Long:       toolLongDesc,
		Aliases:    []string{"t"},
		SuggestFor: []string{"inspect", "integrity", "snapshot"},
		Example:    toolExample,
	}
)

// nolint:gochecknoinits // cobra's standard way to add subcommands
func init() {
	Cmd.AddCommand(inspect.Cmd)
	Cmd.AddCommand(integrity.Cmd)
	Cmd.AddCommand(snapshot.Cmd)
	Cmd.AddCommand(snapshot.RestoreCmd)
}
