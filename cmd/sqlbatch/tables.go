package main

import (
	"bufio"
	"fmt"

	cli "github.com/canonical/lxd/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/canonical/sqlbatch/internal/menu"
)

type cmdTables struct {
	common *CmdControl
	output outputFlags

	flagServer   string
	flagSelect   bool
	flagDescribe bool
}

func (c *cmdTables) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables [<table>]",
		Short: "List the tables of a server, or select from or describe one of them.",
		RunE:  c.run,
	}

	cmd.Flags().StringVarP(&c.flagServer, "server", "s", "", "Server profile to use instead of the active one"+"``")
	cmd.Flags().BoolVar(&c.flagSelect, "select", false, "Select the first rows of the table")
	cmd.Flags().BoolVar(&c.flagDescribe, "describe", false, "Describe the columns of the table")
	cmd.MarkFlagsMutuallyExclusive("select", "describe")
	c.output.register(cmd)

	return cmd
}

func (c *cmdTables) run(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return cmd.Help()
	}

	m, err := c.common.app()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		tables, err := m.Tables(cmd.Context(), c.flagServer)
		if err != nil {
			return err
		}

		data := make([][]string, len(tables))
		for i, table := range tables {
			data[i] = []string{table}
		}

		return cli.RenderTable(cli.TableFormatTable, []string{"TABLE"}, data, tables)
	}

	action, err := c.action(cmd)
	if err != nil {
		return err
	}

	window, err := c.output.window()
	if err != nil {
		return err
	}

	err = m.Run(cmd.Context(), window, c.flagServer, args[0], action)
	if err != nil {
		return err
	}

	return c.output.flush(cmd, m, window)
}

// action returns the action chosen by flag, or asks for one.
func (c *cmdTables) action(cmd *cobra.Command) (menu.Action, error) {
	if c.flagSelect {
		return menu.ActionSelectTop, nil
	}

	if c.flagDescribe {
		return menu.ActionDescribe, nil
	}

	for i, label := range menu.Actions {
		fmt.Fprintf(cmd.OutOrStdout(), "%d) %s\n", i+1, label)
	}

	asker := cli.NewAsker(bufio.NewReader(cmd.InOrStdin()))

	index, err := asker.AskInt("Action: ", 1, int64(len(menu.Actions)), "", nil)
	if err != nil {
		return 0, fmt.Errorf("Failed to read action: %w", err)
	}

	return menu.ParseAction(int(index - 1))
}
