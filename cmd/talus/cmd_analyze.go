// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/TalusRisk/TalusPSA/cmd/talus/config"
	"github.com/TalusRisk/TalusPSA/pkg/ux"
	"github.com/TalusRisk/TalusPSA/services/fta"
	"github.com/TalusRisk/TalusPSA/services/fta/mef"
	"github.com/TalusRisk/TalusPSA/services/fta/report"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	analyzeLimit    int
	analyzeCoherent bool
	analyzeTrue     []string
	analyzeFalse    []string
	analyzeFormat   string
	analyzeOutput   string
	analyzeUpload   string
	analyzeWatch    bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// analyzeCmd runs the minimal cut set analysis.
var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Enumerate the minimal cut sets of fault tree models",
	Long: `Analyze parses each model file, preprocesses the tree, and
enumerates the minimal cut sets of its top event.

Multiple files are analyzed concurrently. Reports go to stdout by
default; with --output and several files the reports are written as
one file per model.

Examples:
  talus analyze plant.yaml
  talus analyze plant.yaml --limit 4 --format json
  talus analyze plant.yaml --true MAINT_MODE --false BACKUP_ON
  talus analyze trains/*.yaml --output reports/ --format yaml
  talus analyze plant.yaml --watch`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 0,
		"Maximum cut set width (0 = config default)")
	analyzeCmd.Flags().BoolVar(&analyzeCoherent, "coherent", false,
		"Promise the model contains no negation and skip complement handling")
	analyzeCmd.Flags().StringSliceVar(&analyzeTrue, "true", nil,
		"House events to force true (repeatable)")
	analyzeCmd.Flags().StringSliceVar(&analyzeFalse, "false", nil,
		"House events to force false (repeatable)")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text",
		"Report format: text, json, or yaml")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "",
		"Output file, or directory when analyzing several models")
	analyzeCmd.Flags().StringVar(&analyzeUpload, "upload", "",
		"Upload rendered reports to gs://bucket/prefix (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeWatch, "watch", false,
		"Stay running and re-analyze a model whenever its file changes")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runAnalyze executes the analysis for every named model.
func runAnalyze(cmd *cobra.Command, args []string) {
	log := newLogger("cli")
	defer log.Close()
	slog.SetDefault(log.Slog())

	format, err := report.ParseFormat(analyzeFormat)
	if err != nil {
		ux.Error(fmt.Sprintf("Unknown format %q, want text, json, or yaml", analyzeFormat))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &analysisRunner{
		svc: fta.NewService(analysisDefaults()),
		settings: fta.AnalysisSettings{
			OrderLimit:     analyzeLimit,
			AssumeCoherent: analyzeCoherent || config.Global.Analysis.AssumeCoherent,
			TrueHouse:      analyzeTrue,
			FalseHouse:     analyzeFalse,
		},
		writer: report.Writer{
			Format: format,
			Styled: format == report.FormatText && analyzeOutput == "" && !ux.Plain(),
		},
		output: analyzeOutput,
	}

	if dest := uploadDestination(); dest != "" {
		ref, err := report.ParseObjectRef(dest)
		if err != nil {
			ux.Error(fmt.Sprintf("Bad upload destination %q: %v", dest, err))
			os.Exit(1)
		}
		uploader, err := report.NewUploader(ctx, ref, config.Global.Upload.CredentialsFile)
		if err != nil {
			ux.Error(fmt.Sprintf("Cannot open upload destination: %v", err))
			os.Exit(1)
		}
		defer uploader.Close()
		runner.uploader = uploader
	}

	if err := runner.prepareOutput(len(args)); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if err := runner.analyzeAll(ctx, args); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if analyzeWatch {
		if err := runner.watch(ctx, args); err != nil {
			ux.Error(err.Error())
			os.Exit(1)
		}
	}
}

// uploadDestination resolves the report upload target: the --upload
// flag wins, then the config file. Empty disables uploading.
func uploadDestination() string {
	if analyzeUpload != "" {
		return analyzeUpload
	}
	return config.Global.Upload.Bucket
}

// analysisRunner holds everything one analyze invocation needs, so
// the watch loop can re-run files with the same configuration.
type analysisRunner struct {
	svc       *fta.Service
	settings  fta.AnalysisSettings
	writer    report.Writer
	output    string
	outputDir bool
	uploader  *report.Uploader
}

// prepareOutput decides whether --output names a file or a directory.
// Several models never share one file.
func (r *analysisRunner) prepareOutput(models int) error {
	if r.output == "" {
		return nil
	}
	if info, err := os.Stat(r.output); err == nil && info.IsDir() {
		r.outputDir = true
		return nil
	}
	if models > 1 {
		if err := os.MkdirAll(r.output, 0755); err != nil {
			return fmt.Errorf("create output directory %s: %w", r.output, err)
		}
		r.outputDir = true
	}
	return nil
}

// analyzeAll fans the models out across goroutines, then delivers the
// reports in argument order.
func (r *analysisRunner) analyzeAll(ctx context.Context, paths []string) error {
	type outcome struct {
		rep  *report.Report
		data []byte
	}
	results := make([]outcome, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			rep, data, err := r.analyzeOne(gctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = outcome{rep: rep, data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range paths {
		if err := r.deliver(ctx, path, results[i].rep, results[i].data); err != nil {
			return err
		}
	}
	return nil
}

// analyzeOne parses, analyzes, and renders a single model.
func (r *analysisRunner) analyzeOne(ctx context.Context, path string) (*report.Report, []byte, error) {
	model, err := mef.ParseFile(path)
	if err != nil {
		return nil, nil, err
	}
	rep, err := r.svc.Analyze(ctx, model, r.settings)
	if err != nil {
		return nil, nil, err
	}
	data, err := r.writer.Render(rep)
	if err != nil {
		return nil, nil, err
	}
	return rep, data, nil
}

// deliver writes a rendered report to stdout or its output file, then
// uploads it when a destination is configured.
func (r *analysisRunner) deliver(ctx context.Context, path string, rep *report.Report, data []byte) error {
	switch {
	case r.output == "":
		if _, err := os.Stdout.Write(data); err != nil {
			return err
		}
	default:
		dest := r.output
		if r.outputDir {
			dest = filepath.Join(r.output, outputBaseName(path)+r.writer.Format.Extension())
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		ux.Success(fmt.Sprintf("%s: %d minimal cut sets -> %s", path, len(rep.Products), dest))
	}

	if r.uploader != nil {
		name := rep.RunID + r.writer.Format.Extension()
		url, err := r.uploader.Upload(ctx, name, r.writer.Format.ContentType(), data)
		if err != nil {
			return fmt.Errorf("upload report: %w", err)
		}
		slog.Info("Uploaded report", "model", rep.Model, "url", url)
	}
	return nil
}

// watch re-analyzes models as their files change, until interrupted.
func (r *analysisRunner) watch(ctx context.Context, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the parent directories: editors replace files by rename,
	// which silently drops a watch placed on the file itself.
	targets := make(map[string]string, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = p
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}

	ux.Info("Watching for model changes, Ctrl+C stops")

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
				!event.Op.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			arg, ok := targets[abs]
			if !ok {
				continue
			}
			// Debounce: editors fire bursts of events per save.
			pending[arg] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(250 * time.Millisecond)
			timerC = timer.C

		case <-timerC:
			for arg := range pending {
				rep, data, err := r.analyzeOne(ctx, arg)
				if err != nil {
					ux.Error(fmt.Sprintf("%s: %v", arg, err))
					continue
				}
				if err := r.deliver(ctx, arg, rep, data); err != nil {
					ux.Error(fmt.Sprintf("%s: %v", arg, err))
				}
			}
			clear(pending)
			timer = nil
			timerC = nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watch error", "error", err)
		}
	}
}
