// Package main provides the sqlbatch daemon.
package main

import (
	"os"

	"github.com/canonical/lxd/shared/logger"
	"github.com/spf13/cobra"

	"github.com/canonical/sqlbatch/config"
	"github.com/canonical/sqlbatch/internal/rest/types"
	"github.com/canonical/sqlbatch/internal/version"
	"github.com/canonical/sqlbatch/sqlbatch"
	"github.com/canonical/sqlbatch/state"
)

type cmdGlobal struct {
	flagHelp    bool
	flagVersion bool

	flagLogDebug   bool
	flagLogVerbose bool
}

type cmdDaemon struct {
	global *cmdGlobal

	flagStateDir      string
	flagSocketGroup   string
	flagListenAddress string
}

func (c *cmdDaemon) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sqlbatchd",
		Short:   "Daemon running SQL batches submitted over its REST API",
		Version: version.Version(),
	}

	cmd.RunE = c.run

	return cmd
}

func (c *cmdDaemon) run(cmd *cobra.Command, args []string) error {
	m, err := sqlbatch.App(sqlbatch.Args{
		StateDir:      c.flagStateDir,
		SocketGroup:   c.flagSocketGroup,
		ListenAddress: c.flagListenAddress,
		Verbose:       c.global.flagLogVerbose,
		Debug:         c.global.flagLogDebug,
	})
	if err != nil {
		return err
	}

	hooks := &config.Hooks{
		// OnStart is run after the daemon is started.
		OnStart: func(s *state.State) error {
			logger.Info("Daemon started", logger.Ctx{"servers": s.Settings.GetServerNames(), "active": s.Settings.GetActiveServer()})

			return nil
		},

		// PostBatch is run after every batch has finished.
		PostBatch: func(s *state.State, batch types.SQLBatch) error {
			failed := 0
			for _, result := range batch.Results {
				if result.Error != "" {
					failed++
				}
			}

			logger.Debug("Batch finished", logger.Ctx{"batch": batch.ID, "statements": len(batch.Results), "failed": failed})

			return nil
		},

		// OnSettingsUpdate is run after the settings file was reloaded.
		OnSettingsUpdate: func(s *state.State) error {
			logger.Info("Settings reloaded", logger.Ctx{"servers": s.Settings.GetServerNames()})

			return nil
		},
	}

	return m.Start(cmd.Context(), nil, hooks)
}

func main() {
	daemonCmd := cmdDaemon{global: &cmdGlobal{}}
	app := daemonCmd.command()
	app.SilenceUsage = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	app.PersistentFlags().BoolVarP(&daemonCmd.global.flagHelp, "help", "h", false, "Print help")
	app.PersistentFlags().BoolVar(&daemonCmd.global.flagVersion, "version", false, "Print version number")
	app.PersistentFlags().BoolVarP(&daemonCmd.global.flagLogDebug, "debug", "d", false, "Show all debug messages")
	app.PersistentFlags().BoolVarP(&daemonCmd.global.flagLogVerbose, "verbose", "v", false, "Show all information messages")

	app.PersistentFlags().StringVar(&daemonCmd.flagStateDir, "state-dir", "", "Path to store state information"+"``")
	app.PersistentFlags().StringVar(&daemonCmd.flagSocketGroup, "socket-group", "", "Group to set socket's group ownership to")
	app.PersistentFlags().StringVar(&daemonCmd.flagListenAddress, "listen", "", "Address to also serve the API on over TCP"+"``")

	app.SetVersionTemplate("{{.Version}}\n")

	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
