package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"

	"github.com/canonical/lxd/shared/logger"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/canonical/sqlbatch/internal/split"
	"github.com/canonical/sqlbatch/internal/surface"
	"github.com/canonical/sqlbatch/sqlbatch"
)

type cmdShell struct {
	common *CmdControl
	output outputFlags

	flagDelimiter string
	flagServer    string
	flagRemote    bool
}

func (c *cmdShell) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Read scripts interactively. A line holding only the delimiter executes the lines before it.",
		RunE:  c.run,
	}

	cmd.Flags().StringVar(&c.flagDelimiter, "delimiter", "", "Statement delimiter (default \"go\")"+"``")
	cmd.Flags().StringVarP(&c.flagServer, "server", "s", "", "Server profile to use instead of the active one"+"``")
	cmd.Flags().BoolVarP(&c.flagRemote, "remote", "r", false, "Run the batches on the sqlbatch daemon")
	c.output.register(cmd)

	return cmd
}

func (c *cmdShell) run(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return cmd.Help()
	}

	m, err := c.common.app()
	if err != nil {
		return err
	}

	window, err := c.output.window()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	err = m.WatchSettings(ctx, func() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Settings reloaded")
	})
	if err != nil {
		logger.Warn("Settings will not be reloaded on change", logger.Ctx{"error": err})
	}

	delimiter := c.flagDelimiter
	if delimiter == "" {
		delimiter = split.DefaultDelimiter
	}

	var script strings.Builder
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) != delimiter {
			script.WriteString(line + "\n")
			continue
		}

		err := c.exec(ctx, cmd, m, window, script.String())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

		script.Reset()
		window.ResultView().Clear()
	}

	err = scanner.Err()
	if err != nil {
		return err
	}

	// Execute what is left when the input ends.
	if strings.TrimSpace(script.String()) != "" {
		return c.exec(ctx, cmd, m, window, script.String())
	}

	return nil
}

// exec runs one script. An interrupt stops waiting for it and returns to the prompt.
func (c *cmdShell) exec(ctx context.Context, cmd *cobra.Command, m *sqlbatch.SQLBatch, window *surface.Window, script string) error {
	ctx, stop := signal.NotifyContext(ctx, unix.SIGINT)
	defer stop()

	err := m.Exec(ctx, window, sqlbatch.ExecArgs{
		Query:     script,
		Delimiter: c.flagDelimiter,
		Server:    c.flagServer,
		Remote:    c.flagRemote,
	})
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("Stopped waiting for the batch")
	}

	if err != nil {
		return err
	}

	return c.output.flush(cmd, m, window)
}
