// Command riffdump prints a human-readable tree view of a RIFF container
// (AVI, WAV, and other RIFF-family files) to standard output.
//
// Usage:
//
//	riffdump <input.avi>
package main

import (
	"fmt"
	"os"

	"github.com/go-raster/raster/riff"
	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:           "riffdump <input>",
		Short:         "Print a RIFF container's chunk tree",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("riffdump: reading %s: %w", args[0], err)
			}

			tree, err := riff.Parse(data)
			if err != nil {
				return fmt.Errorf("riffdump: parsing %s: %w", args[0], err)
			}

			if noColor {
				fmt.Fprint(cmd.OutOrStdout(), riff.Print(tree))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), riff.Fprint(tree))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI color in the tree output")
	return cmd
}
