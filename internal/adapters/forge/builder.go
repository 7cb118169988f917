package forge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"
	"github.com/trebuchet-org/treb-proxy/internal/config"
	"github.com/trebuchet-org/treb-proxy/internal/usecase"
)

// Builder compiles the project's contracts with forge so fresh artifacts
// exist before anything is deployed
type Builder struct {
	log         *slog.Logger
	projectRoot string
	binary      string
	stream      io.Writer // nil unless --debug
}

// NewBuilder creates a new forge builder for the configured project
func NewBuilder(cfg *config.RuntimeConfig, log *slog.Logger) *Builder {
	b := &Builder{
		log:         log.With("component", "ForgeBuilder"),
		projectRoot: cfg.ProjectRoot,
		binary:      "forge",
	}
	if cfg.Debug {
		b.stream = os.Stderr
	}
	return b
}

// Build runs forge build. Output runs through a pty so forge keeps its
// colors when streamed in debug mode.
func (b *Builder) Build(ctx context.Context) error {
	start := time.Now()
	b.log.Debug("running forge build", "dir", b.projectRoot)

	cmd := exec.CommandContext(ctx, b.binary, "build")
	cmd.Dir = b.projectRoot

	ptyFile, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start forge build: %w", err)
	}
	defer func() {
		_ = ptyFile.Close()
	}()

	var output bytes.Buffer
	var w io.Writer = &output
	if b.stream != nil {
		w = io.MultiWriter(&output, b.stream)
	}
	// the pty reports EIO once forge exits
	_, _ = io.Copy(w, ptyFile)

	if err := cmd.Wait(); err != nil {
		b.log.Error("forge build failed", "error", err, "duration", time.Since(start))
		return fmt.Errorf("forge build failed: %w\nOutput: %s", err, output.String())
	}

	b.log.Debug("forge build completed", "duration", time.Since(start))
	return nil
}

var _ usecase.ContractBuilder = (*Builder)(nil)
