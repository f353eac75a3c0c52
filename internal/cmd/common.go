package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
)

// handleError prints err and, for usage mistakes, the command usage.
func handleError(cmd *cobra.Command, err error) error {
	cmd.PrintErrln(err)
	if errors.Is(err, errMissingArgument) {
		_ = cmd.Usage() // nothing to do if printing usage fails
	}
	return err
}

// printJSON writes v to the command output as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
