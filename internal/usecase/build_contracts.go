package usecase

import (
	"context"
	"fmt"
	"log/slog"
)

// BuildContracts compiles the project before a deploy or upgrade so the
// bytecode sent on chain matches the sources
type BuildContracts struct {
	builder  ContractBuilder
	progress ProgressSink
	log      *slog.Logger
}

// NewBuildContracts creates a new BuildContracts use case
func NewBuildContracts(builder ContractBuilder, progress ProgressSink, log *slog.Logger) *BuildContracts {
	return &BuildContracts{
		builder:  builder,
		progress: progress,
		log:      log.With("usecase", "build-contracts"),
	}
}

// Run compiles the contracts. Nothing has been sent yet when this fails.
func (uc *BuildContracts) Run(ctx context.Context) error {
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepBuild, Message: "Compiling contracts...", Spinner: true})
	err := uc.builder.Build(ctx)
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepBuild})
	if err != nil {
		return fmt.Errorf("failed to build contracts: %w", err)
	}
	uc.progress.Info("Contracts compiled")
	return nil
}
