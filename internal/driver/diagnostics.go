package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Diagnostics receives an artifact of the current view on every terminal
// path, success or failure.
type Diagnostics interface {
	Capture(ctx context.Context, view View, label string)
}

// FSDiagnostics writes captured artifacts under Dir, named by label and
// timestamp. Capture failures are logged, never surfaced: diagnostics must
// not change a request's outcome.
type FSDiagnostics struct {
	Dir string
}

func (d FSDiagnostics) Capture(ctx context.Context, view View, label string) {
	if view == nil || d.Dir == "" {
		return
	}
	b, err := view.CaptureDiagnostic(ctx)
	if err != nil {
		log.Warn().Err(err).Str("label", label).Msg("diagnostics: capture failed")
		return
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", d.Dir).Msg("diagnostics: mkdir failed")
		return
	}
	name := fmt.Sprintf("%s-%s.png", time.Now().UTC().Format("20060102T150405"), label)
	path := filepath.Join(d.Dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("diagnostics: write failed")
		return
	}
	log.Debug().Str("path", path).Msg("diagnostics: artifact written")
}

// NopDiagnostics discards all captures. Used by --dry-run and tests.
type NopDiagnostics struct{}

func (NopDiagnostics) Capture(context.Context, View, string) {}
