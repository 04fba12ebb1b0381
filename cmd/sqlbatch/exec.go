package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/canonical/sqlbatch/sqlbatch"
)

type cmdExec struct {
	common *CmdControl
	output outputFlags

	flagDelimiter string
	flagServer    string
	flagSelection string
	flagRemote    bool
	flagMenu      bool
}

func (c *cmdExec) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec [<file>|-]",
		Short: "Execute a SQL script as one batch. The script is read from the file, the selection or stdin.",
		RunE:  c.run,
	}

	cmd.Flags().StringVar(&c.flagDelimiter, "delimiter", "", "Statement delimiter (default \"go\")"+"``")
	cmd.Flags().StringVarP(&c.flagServer, "server", "s", "", "Server profile to use instead of the active one"+"``")
	cmd.Flags().StringVar(&c.flagSelection, "selection", "", "Execute this text instead of reading a file"+"``")
	cmd.Flags().BoolVarP(&c.flagRemote, "remote", "r", false, "Run the batch on the sqlbatch daemon")
	cmd.Flags().BoolVar(&c.flagMenu, "echo", false, "Print every query above its results")
	c.output.register(cmd)

	return cmd
}

func (c *cmdExec) run(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return cmd.Help()
	}

	query, err := c.script(cmd, args)
	if err != nil {
		return err
	}

	m, err := c.common.app()
	if err != nil {
		return err
	}

	window, err := c.output.window()
	if err != nil {
		return err
	}

	err = m.Exec(cmd.Context(), window, sqlbatch.ExecArgs{
		Query:     query,
		Delimiter: c.flagDelimiter,
		Server:    c.flagServer,
		Remote:    c.flagRemote,
		MenuMode:  c.flagMenu,
	})
	if err != nil {
		return err
	}

	return c.output.flush(cmd, m, window)
}

// script returns the selection if one is given, otherwise the whole file or stdin.
func (c *cmdExec) script(cmd *cobra.Command, args []string) (string, error) {
	if c.flagSelection != "" {
		return c.flagSelection, nil
	}

	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}

		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}

	return string(data), nil
}
