// Command quire converts HTML, XML, Markdown and EPUB files to DOCX.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	flags, inputs, err := parseFlags(args, io.Discard)
	if err != nil {
		fmt.Fprintln(stderr, err)
		printUsage(stderr)
		return exitCodeFor(err)
	}
	if flags.help {
		printUsage(stdout)
		return ExitSuccess
	}
	if flags.version {
		fmt.Fprintf(stdout, "quire %s\n", Version)
		return ExitSuccess
	}
	if len(inputs) == 0 {
		fmt.Fprintln(stderr, ErrNoInput)
		printUsage(stderr)
		return ExitUsage
	}

	log := newLogger(flags.verbose, flags.quiet, stderr)
	defer log.Sync() //nolint:errcheck

	// maxprocs.Set only fails if GOMAXPROCS is invalid; runtime defaults
	// apply in that case
	undo, _ := maxprocs.Set(maxprocs.Logger(log.Sugar().Debugf))
	defer undo()

	opts, err := flags.options()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitCodeFor(err)
	}
	opts.Logger = log

	jobs, err := planJobs(inputs, flags.output)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitCodeFor(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	workers := resolveWorkers(flags.workers, len(jobs))
	log.Debug("starting conversion", zap.Int("files", len(jobs)), zap.Int("workers", workers))

	results := convertBatch(ctx, jobs, batchParams{
		options: opts,
		verify:  flags.verify,
		workers: workers,
		log:     log,
	})
	return report(stdout, stderr, results, flags)
}

// newLogger builds a development console logger for --verbose and a
// production JSON logger otherwise. Both write to w.
func newLogger(verbose, quiet bool, w io.Writer) *zap.Logger {
	sink := zapcore.Lock(zapcore.AddSync(w))
	if verbose {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zap.New(zapcore.NewCore(enc, sink, zapcore.DebugLevel), zap.Development())
	}

	level := zapcore.WarnLevel
	if quiet {
		level = zapcore.ErrorLevel
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, sink, level))
}
