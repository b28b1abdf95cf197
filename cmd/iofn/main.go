// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command iofn reads files, processes and HTTP bodies as text.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/z5labs/iofn/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := cli.New().ExecuteContext(ctx)
	if err != nil {
		cancel()
		os.Exit(1)
	}
}
