package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/config"
	"github.com/yakuphankucukkesim/resonora-ai/internal/upload"
)

// Dispatcher enqueues one pipeline run per uploaded file. Implementations
// must dedupe concurrent triggers for the same file identity: the trigger
// source delivers at least once.
type Dispatcher interface {
	Dispatch(ctx context.Context, uploadedFileID uuid.UUID) error
}

// InlineDispatcher runs the pipeline in-process with a bounded retry. Used
// when no Temporal server is available; the in-flight map keeps a single
// writer per file identity.
type InlineDispatcher struct {
	orchestrator *Orchestrator
	retryCfg     config.RetryConfig
	logger       *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewInlineDispatcher(orchestrator *Orchestrator, retryCfg config.RetryConfig, logger *zap.Logger) *InlineDispatcher {
	return &InlineDispatcher{
		orchestrator: orchestrator,
		retryCfg:     retryCfg,
		logger:       logger,
		inFlight:     make(map[uuid.UUID]struct{}),
	}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, uploadedFileID uuid.UUID) error {
	d.mu.Lock()
	if _, busy := d.inFlight[uploadedFileID]; busy {
		d.mu.Unlock()
		d.logger.Info("Run already in flight, dropping duplicate trigger",
			zap.String("upload_id", uploadedFileID.String()))
		return nil
	}
	d.inFlight[uploadedFileID] = struct{}{}
	d.mu.Unlock()

	go func() {
		defer func() {
			d.mu.Lock()
			delete(d.inFlight, uploadedFileID)
			d.mu.Unlock()
		}()

		runCtx := context.Background()
		err := Retry(runCtx, d.logger, d.retryCfg, fmt.Sprintf("process upload %s", uploadedFileID), func() error {
			err := d.orchestrator.Run(runCtx, uploadedFileID)
			if errors.Is(err, upload.ErrNotFound) {
				return Permanent(err)
			}
			return err
		})
		if err != nil {
			d.logger.Error("Pipeline run gave up",
				zap.String("upload_id", uploadedFileID.String()),
				zap.Error(err))
		}
	}()

	return nil
}
