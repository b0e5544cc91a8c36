package report

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chatcheck/chatcheck/internal/suite"
)

// File writes a run to Path with Encode, creating parent directories.
type File struct {
	Path   string
	Encode func(w io.Writer, run *suite.Run) error
}

func (f *File) Report(run *suite.Run) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	out, err := os.Create(f.Path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	w := bufio.NewWriter(out)
	if err := f.Encode(w, run); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	if err := w.Flush(); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	slog.Info("report written", "path", f.Path)
	return nil
}
