package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/canonical/sqlbatch/internal/render"
	"github.com/canonical/sqlbatch/internal/surface"
	"github.com/canonical/sqlbatch/sqlbatch"
)

// outputFlags select where and how the result view of a command is written.
type outputFlags struct {
	flagFormat string
	flagOutput string
	flagSave   bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.flagFormat, "format", "f", string(render.FormatText), fmt.Sprintf("Format of the results %v", render.Formats())+"``")
	cmd.Flags().StringVarP(&o.flagOutput, "output", "o", "", "Write the results to a file instead of stdout"+"``")
	cmd.Flags().BoolVar(&o.flagSave, "save", false, "Also keep the results in the state directory")
}

// window returns a window rendering in the selected format, with its status mirrored on stderr.
func (o *outputFlags) window() (*surface.Window, error) {
	format, err := render.ParseFormat(o.flagFormat)
	if err != nil {
		return nil, err
	}

	return surface.NewWindow(surface.WithFormat(format), surface.WithStatusMirror(os.Stderr)), nil
}

// flush prints the final status on stderr and writes the result view.
func (o *outputFlags) flush(cmd *cobra.Command, m *sqlbatch.SQLBatch, window *surface.Window) error {
	status := window.Status()
	window.ClearStatus()
	if status != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), status)
	}

	view := window.ResultView()
	if view.Size() == 0 {
		return nil
	}

	if o.flagSave {
		err := view.FlushFile(m.FileSystem.ResultsPath(view.Name()))
		if err != nil {
			return err
		}
	}

	if o.flagOutput != "" {
		return view.FlushFile(o.flagOutput)
	}

	return view.Flush(cmd.OutOrStdout())
}
