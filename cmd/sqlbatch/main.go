// Package main provides the sqlbatch client tool.
package main

import (
	"os"

	"github.com/canonical/lxd/shared/logger"
	"github.com/spf13/cobra"

	"github.com/canonical/sqlbatch/internal/version"
	"github.com/canonical/sqlbatch/sqlbatch"
)

// CmdControl has functions that are common to the sqlbatch commands.
type CmdControl struct {
	FlagHelp       bool
	FlagVersion    bool
	FlagLogDebug   bool
	FlagLogVerbose bool
	FlagStateDir   string
}

// app returns sqlbatch with the settings of the selected state directory.
func (c *CmdControl) app() (*sqlbatch.SQLBatch, error) {
	return sqlbatch.App(sqlbatch.Args{StateDir: c.FlagStateDir, Verbose: c.FlagLogVerbose, Debug: c.FlagLogDebug})
}

func (c *CmdControl) initLogger(cmd *cobra.Command, args []string) error {
	return logger.InitLogger("", "", c.FlagLogVerbose, c.FlagLogDebug, nil)
}

func main() {
	// common flags.
	commonCmd := CmdControl{}

	app := &cobra.Command{
		Use:               "sqlbatch",
		Short:             "Command for running SQL scripts as batches on a single database session",
		Version:           version.Version(),
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: commonCmd.initLogger,
	}

	app.PersistentFlags().StringVar(&commonCmd.FlagStateDir, "state-dir", "", "Path to store state information"+"``")
	app.PersistentFlags().BoolVarP(&commonCmd.FlagHelp, "help", "h", false, "Print help")
	app.PersistentFlags().BoolVar(&commonCmd.FlagVersion, "version", false, "Print version number")
	app.PersistentFlags().BoolVarP(&commonCmd.FlagLogDebug, "debug", "d", false, "Show all debug messages")
	app.PersistentFlags().BoolVarP(&commonCmd.FlagLogVerbose, "verbose", "v", false, "Show all information messages")

	app.SetVersionTemplate("{{.Version}}\n")

	var cmdExec = cmdExec{common: &commonCmd}
	app.AddCommand(cmdExec.command())

	var cmdTables = cmdTables{common: &commonCmd}
	app.AddCommand(cmdTables.command())

	var cmdServers = cmdServers{common: &commonCmd}
	app.AddCommand(cmdServers.command())

	var cmdShell = cmdShell{common: &commonCmd}
	app.AddCommand(cmdShell.command())

	var cmdShutdown = cmdShutdown{common: &commonCmd}
	app.AddCommand(cmdShutdown.command())

	var cmdWaitready = cmdWaitready{common: &commonCmd}
	app.AddCommand(cmdWaitready.command())

	app.InitDefaultHelpCmd()

	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
