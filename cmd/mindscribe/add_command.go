package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mindscribe/internal/queueaccess"
)

var recordingExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".m4a":  {},
	".aac":  {},
	".flac": {},
	".ogg":  {},
	".opus": {},
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var sessionTitle string
	var forceBaseline bool

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add a session recording to the processing queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("recording does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect recording: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}

			ext := strings.ToLower(filepath.Ext(info.Name()))
			if _, ok := recordingExtensions[ext]; !ok {
				return fmt.Errorf("unsupported recording extension %q", ext)
			}

			return ctx.withQueue(func(access queueaccess.Access) error {
				job, err := access.Add(cmd.Context(), absPath, sessionTitle, forceBaseline)
				if err != nil {
					return err
				}
				if job == nil {
					return errors.New("empty response from queue")
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, job)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued recording as job #%d (%s)\n", job.ID, jobTitle(*job))
				if forceBaseline {
					fmt.Fprintln(cmd.OutOrStdout(), "Baseline transcription requested")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&sessionTitle, "title", "t", "", "Session title for the queued recording")
	cmd.Flags().BoolVar(&forceBaseline, "baseline", false, "Skip the accelerated engine and use the baseline service")
	return cmd
}
