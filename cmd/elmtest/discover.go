// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/elmtest/services/discovery/collector"
	"github.com/AleutianAI/elmtest/services/discovery/files"
	"github.com/AleutianAI/elmtest/services/discovery/telemetry"
)

// errFilesFailed makes the process exit non-zero after a report that listed
// failures.
var errFilesFailed = errors.New("one or more files failed")

type discoverOptions struct {
	strategy string
	jsonOut  bool
	watch    bool
}

func newDiscoverCmd() *cobra.Command {
	var opts discoverOptions

	cmd := &cobra.Command{
		Use:   "discover [patterns...]",
		Short: "List candidate tests in Elm files",
		Long: `Expands the given glob patterns (default "tests/**/*.elm"), parses every
matched Elm file and prints the values it exposes as candidate tests.

Exit status is 1 if any file failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{files.DefaultPattern}
			}
			return runDiscover(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Resolver strategy: query or cursor (overrides config)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-run discovery when matched files change")
	return cmd
}

func runDiscover(ctx context.Context, out io.Writer, patterns []string, opts discoverOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(opts.strategy)
	if err != nil {
		return err
	}

	// The CLI exits before a scrape could happen, so prometheus is skipped.
	tc := telemetryConfig(cfg)
	if tc.MetricExporter == "prometheus" {
		tc.MetricExporter = "none"
	}
	shutdown, err := telemetry.Init(ctx, tc)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
	}()

	logger := slog.Default()
	c, store, err := buildCollector(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	run := func(ctx context.Context) ([]string, error) {
		paths, err := files.Match(patterns...)
		if err != nil {
			return nil, err
		}
		sources, err := files.Load(paths)
		if err != nil {
			return paths, err
		}
		return paths, discoverOnce(ctx, out, c, sources, opts.jsonOut)
	}

	paths, runErr := run(ctx)
	if !opts.watch {
		return runErr
	}
	if runErr != nil && !errors.Is(runErr, errFilesFailed) {
		return runErr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := files.NewWatcher(files.Dirs(paths), func(changed []string) {
		logger.Info("re-running discovery", slog.Int("changed", len(changed)))
		if _, err := run(ctx); err != nil && !errors.Is(err, errFilesFailed) {
			logger.Error("discovery failed", slog.String("error", err.Error()))
		}
	}, files.WatcherOptions{Logger: logger})
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "watching for changes, press Ctrl+C to stop")
	return w.Run(ctx)
}

// discoverOnce collects sources and writes the report to out.
func discoverOnce(ctx context.Context, out io.Writer, c *collector.Collector, sources []collector.Source, jsonOut bool) error {
	modules, err := c.Collect(ctx, sources)

	var collectErr *collector.CollectError
	if err != nil && !errors.As(err, &collectErr) {
		return err
	}

	r := newReport(modules, collectErr)
	if jsonOut {
		err = renderJSON(out, r)
	} else {
		err = renderText(out, r, stylesFor(out))
	}
	if err != nil {
		return err
	}

	if collectErr != nil {
		return errFilesFailed
	}
	return nil
}
