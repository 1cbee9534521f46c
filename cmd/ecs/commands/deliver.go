// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/ecs-project/ecs/cmd/ecs/cli"
	"github.com/ecs-project/ecs/lib/bus"
	"github.com/ecs-project/ecs/lib/replay"
)

// interruptedExitCode is the conventional exit status after SIGINT.
const interruptedExitCode = 130

// runControllers runs each controller to completion, in order, while
// printing bus messages to stdout. Progress on the logs stream is
// printed only when verbose. The bus is closed once the last
// controller finishes or ctx is done.
//
// It returns an ExitError when any failure was published or ctx was
// cancelled.
func runControllers(ctx context.Context, eventBus *bus.Bus, stdout io.Writer, verbose bool, controllers []*replay.Controller) error {
	go func() {
		defer eventBus.Close()
		for _, controller := range controllers {
			controller.Run()
			select {
			case <-controller.Done():
			case <-ctx.Done():
				controller.Cancel()
				return
			}
		}
	}()

	failures := 0
	err := bus.Pump(context.Background(), eventBus, func(message bus.Message) {
		switch message.Stream {
		case bus.Logs:
			if !verbose {
				return
			}
		case bus.Errors:
			failures++
		}
		fmt.Fprintln(stdout, message.Text)
	})
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		return &cli.ExitError{Code: interruptedExitCode}
	}
	if failures > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}
