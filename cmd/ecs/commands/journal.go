// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/ecs-project/ecs/cmd/ecs/cli"
	"github.com/ecs-project/ecs/lib/bus"
	"github.com/ecs-project/ecs/lib/codec"
)

type journalParams struct {
	Stream string `flag:"stream" desc:"print only this stream (effects, logs, context, or errors)"`
	Diag   bool   `flag:"diag" desc:"print each record in CBOR diagnostic notation instead"`
}

func journalCommand(stdout io.Writer) *cli.Command {
	var params journalParams

	return &cli.Command{
		Name:    "journal",
		Summary: "Print a session archive",
		Description: `Decode the CBOR archive a console session writes next to its text
journal and print one line per message: the time, the stream, and the
text. With --diag, print the raw records in CBOR diagnostic notation
(RFC 8949), which helps when an archive fails to decode.`,
		Usage: "ecs journal FILE [--stream NAME | --diag]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("journal", &params)
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return errors.New("usage: ecs journal FILE [--stream NAME]")
			}

			if params.Diag {
				return printDiagnostics(stdout, args[0])
			}

			filter := ""
			if params.Stream != "" {
				stream, err := bus.ParseStream(params.Stream)
				if err != nil {
					return err
				}
				filter = stream.String()
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening archive: %w", err)
			}
			defer file.Close()

			printed := 0
			err = bus.ReadArchive(file, func(record bus.Record) error {
				if filter != "" && record.Stream != filter {
					return nil
				}
				printed++
				_, err := fmt.Fprintf(stdout, "%s %-7s %s\n",
					record.Time.UTC().Format(time.RFC3339Nano), record.Stream, record.Text)
				return err
			})
			logger.Debug("archive read", "path", args[0], "printed", printed)
			return err
		},
	}
}

func printDiagnostics(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	items, err := codec.DiagnoseSequence(data)
	for _, item := range items {
		fmt.Fprintln(w, item)
	}
	return err
}
