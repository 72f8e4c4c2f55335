package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/quire"
	"github.com/tsawler/quire/convert"
	"github.com/tsawler/quire/docx"
	"github.com/tsawler/quire/model"
)

// File permission constants.
const (
	dirPermissions = 0o750 // rwxr-x---: owner full, group read+execute
)

// Sentinel errors for batch operations.
var (
	ErrNoInput   = errors.New("no input specified")
	ErrWriteDOCX = errors.New("failed to write DOCX file")
	ErrVerify    = errors.New("written DOCX does not match the converted document")
)

// job pairs one input with its output path.
type job struct {
	input  string
	output string
}

// batchParams holds settings shared by every conversion in a batch.
type batchParams struct {
	options convert.Options
	verify  bool
	workers int
	log     *zap.Logger
}

// result holds the outcome of a single conversion.
type result struct {
	job
	stats    model.Stats
	warnings []quire.Warning
	err      error
	duration time.Duration
}

// planJobs resolves output paths. With one input, -o names the output file
// unless it is an existing directory. With several inputs, -o is a
// directory and is created if needed. Without -o, outputs sit next to
// their inputs.
func planJobs(inputs []string, output string) ([]job, error) {
	outDir := ""
	switch {
	case output == "":
	case len(inputs) == 1 && !isDir(output):
		return []job{{input: inputs[0], output: output}}, nil
	default:
		if err := os.MkdirAll(output, dirPermissions); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
		outDir = output
	}

	jobs := make([]job, 0, len(inputs))
	seen := make(map[string]string, len(inputs))
	for _, in := range inputs {
		out := docxName(in)
		if outDir != "" {
			out = filepath.Join(outDir, filepath.Base(out))
		}
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("%w: %s and %s both write %s", ErrUsage, prev, in, out)
		}
		seen[out] = in
		jobs = append(jobs, job{input: in, output: out})
	}
	return jobs, nil
}

// docxName replaces the input's extension with .docx.
func docxName(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".docx"
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// resolveWorkers returns the number of parallel conversions. Zero means
// GOMAXPROCS, which automaxprocs has adjusted to the container quota.
func resolveWorkers(requested, jobs int) int {
	n := requested
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > jobs {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// convertBatch converts every job with at most p.workers running at once.
// A failed file does not stop the others; results keep input order.
func convertBatch(ctx context.Context, jobs []job, p batchParams) []result {
	results := make([]result, len(jobs))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = result{job: j, err: err}
				return nil
			}
			results[i] = convertFile(j, p)
			return nil
		})
	}
	_ = g.Wait() // workers record errors in results

	return results
}

// convertFile converts one input and writes its output.
func convertFile(j job, p batchParams) result {
	start := time.Now()
	res := result{job: j}
	log := p.log.With(zap.String("input", j.input))

	doc, warnings, err := quire.Open(j.input).WithOptions(p.options).Document()
	res.warnings = warnings
	if err != nil {
		res.err = err
		res.duration = time.Since(start)
		return res
	}
	res.stats = doc.Stats()

	for _, w := range warnings {
		log.Warn("degraded content",
			zap.Stringer("kind", w.Kind),
			zap.String("tag", w.Tag),
			zap.String("src", w.Source),
			zap.String("message", w.Message))
	}

	if err := docx.Save(j.output, doc); err != nil {
		res.err = fmt.Errorf("%w: %s: %w", ErrWriteDOCX, j.output, err)
		res.duration = time.Since(start)
		return res
	}

	if p.verify {
		if err := verifyOutput(j.output, res.stats); err != nil {
			res.err = err
		}
	}

	res.duration = time.Since(start)
	log.Debug("converted",
		zap.String("output", j.output),
		zap.Int("blocks", res.stats.Blocks),
		zap.Duration("duration", res.duration))
	return res
}

// verifyOutput re-opens a written file and compares its content counts
// with the converted document.
func verifyOutput(path string, want model.Stats) error {
	r, err := docx.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerify, err)
	}
	defer r.Close()

	doc, err := r.Document()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerify, err)
	}
	got := doc.Stats()

	switch {
	case got.Words != want.Words:
		return fmt.Errorf("%w: %d words, want %d", ErrVerify, got.Words, want.Words)
	case got.Tables != want.Tables:
		return fmt.Errorf("%w: %d tables, want %d", ErrVerify, got.Tables, want.Tables)
	case got.Images != want.Images:
		return fmt.Errorf("%w: %d images, want %d", ErrVerify, got.Images, want.Images)
	}
	return nil
}

// report prints per-file outcomes and returns the exit code of the first
// failure, in input order.
func report(stdout, stderr io.Writer, results []result, f *cliFlags) int {
	code := ExitSuccess
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(stderr, "error: %s: %v\n", r.input, r.err)
			if code == ExitSuccess {
				code = exitCodeFor(r.err)
			}
			continue
		}
		if !f.quiet {
			fmt.Fprintf(stdout, "%s -> %s (%s)\n", r.input, r.output, r.duration.Round(time.Millisecond))
		}
		if f.stats {
			s := r.stats
			fmt.Fprintf(stdout, "  blocks=%d paragraphs=%d headings=%d tables=%d images=%d words=%d chars=%d warnings=%d\n",
				s.Blocks, s.Paragraphs, s.Headings, s.Tables, s.Images, s.Words, s.Characters, len(r.warnings))
		}
	}

	if len(results) > 1 && !f.quiet {
		fmt.Fprintf(stdout, "%d converted, %d failed\n", len(results)-failed, failed)
	}
	return code
}
