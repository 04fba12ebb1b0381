package main

import (
	"fmt"
	"sort"

	cli "github.com/canonical/lxd/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/canonical/sqlbatch/internal/db/dialect"
)

type cmdServers struct {
	common *CmdControl
}

func (c *cmdServers) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage the server profiles.",
		RunE:  c.run,
	}

	var cmdList = cmdServersList{common: c.common}
	cmd.AddCommand(cmdList.command())

	var cmdUse = cmdServersUse{common: c.common}
	cmd.AddCommand(cmdUse.command())

	return cmd
}

func (c *cmdServers) run(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

type cmdServersList struct {
	common *CmdControl

	flagFormat string
}

func (c *cmdServersList) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the server profiles. Passwords are never shown.",
		RunE:  c.run,
	}

	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", cli.TableFormatTable, "Format (csv|json|table|yaml|compact)"+"``")

	return cmd
}

func (c *cmdServersList) run(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return cmd.Help()
	}

	m, err := c.common.app()
	if err != nil {
		return err
	}

	active := m.Settings().GetActiveServer()
	servers := m.Settings().GetServers()

	data := make([][]string, 0, len(servers))
	for name, server := range servers {
		engine := server.Engine
		if engine == "" {
			engine = dialect.Default
		}

		marker := ""
		if name == active {
			marker = "*"
		}

		data = append(data, []string{name, marker, engine, server.Server, server.Port, server.DBName, server.Username})
	}

	header := []string{"NAME", "ACTIVE", "ENGINE", "SERVER", "PORT", "DATABASE", "USERNAME"}
	sort.Sort(cli.SortColumnsNaturally(data))

	return cli.RenderTable(c.flagFormat, header, data, data)
}

type cmdServersUse struct {
	common *CmdControl
}

func (c *cmdServersUse) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Make the named server the active one.",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdServersUse) run(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return cmd.Help()
	}

	m, err := c.common.app()
	if err != nil {
		return err
	}

	err = m.UseServer(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Active server is now %q\n", args[0])

	return nil
}
