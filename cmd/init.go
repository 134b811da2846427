package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockplane/sqlsink/internal/config"
	"github.com/lockplane/sqlsink/internal/wizard"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create sqlsink.toml interactively",
	Long: `Walk through choosing a database and describing the table mapping, then
write sqlsink.toml, an .env file with the connection string, and a .gitignore
entry for .env files.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing sqlsink.toml instead of merging into it")
}

func runInit(cmd *cobra.Command, args []string) error {
	result, err := wizard.Run(wizard.Options{ConfigPath: config.FileName, Force: initForce})
	if errors.Is(err, wizard.ErrAborted) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Init cancelled, nothing was written.")
		return nil
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", result.ConfigPath)
	return nil
}
