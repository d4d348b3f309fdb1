package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/sqlxgen/sqlxgen/config"
)

// Writer writes a Run's Generated files to disk, one goroutine per file,
// mirroring the teacher's TemplateWriter (compiler/gen/writer.go):
// parallel write with an errgroup worker cap, x/tools/imports formatting
// ahead of the final write, and a debug dump of the unformatted source
// when formatting fails so the bad output isn't lost.
type Writer struct {
	cfg     *config.Config
	workers int
}

// NewWriter builds a Writer bound to cfg.OutDir/Format.
func NewWriter(cfg *config.Config) *Writer {
	return &Writer{cfg: cfg, workers: runtime.GOMAXPROCS(0)}
}

// WithWorkers overrides the parallel write worker cap.
func (w *Writer) WithWorkers(n int) *Writer {
	if n > 0 {
		w.workers = n
	}
	return w
}

// WriteAll formats (when enabled) and writes every Generated file under
// the configured output directory.
func (w *Writer) WriteAll(ctx context.Context, files []Generated) error {
	if err := os.MkdirAll(w.cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("driver: create output directory: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)

	for _, f := range files {
		f := f
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.writeOne(f)
			}
		})
	}
	return eg.Wait()
}

func (w *Writer) writeOne(f Generated) error {
	src := f.Source
	if w.cfg.Header != "" {
		src = append([]byte(w.cfg.Header+"\n"), src...)
	}

	fullPath := filepath.Join(w.cfg.OutDir, f.FileName)

	if w.cfg.Format {
		formatted, err := imports.Process(fullPath, src, nil)
		if err != nil {
			debugPath := fullPath + ".error"
			_ = os.WriteFile(debugPath, src, 0o644)
			return fmt.Errorf("driver: format %s: %w (unformatted written to %s)", f.FileName, err, debugPath)
		}
		src = formatted
	}

	if err := os.WriteFile(fullPath, src, 0o644); err != nil {
		return fmt.Errorf("driver: write %s: %w", f.FileName, err)
	}
	return nil
}
