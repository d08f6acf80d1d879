package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/upload"
)

// Store is the record-store surface the pipeline writes through. The
// pipeline is the sole writer of upload statuses, clip rows and debits.
type Store interface {
	LoadFundingInfo(ctx context.Context, id uuid.UUID) (*upload.FundingInfo, error)
	SetStatus(ctx context.Context, id uuid.UUID, status upload.Status) error
	InsertClips(ctx context.Context, uploadedFileID, userID uuid.UUID, keys []string) (int64, error)
	DecrementCredits(ctx context.Context, userID uuid.UUID, amount int64) error
}

// ObjectLister discovers produced artifacts in the content bucket.
type ObjectLister interface {
	ListByPrefix(ctx context.Context, prefix string) ([]string, error)
}

// TranscodeInvoker submits the source object to the external processing
// endpoint.
type TranscodeInvoker interface {
	Submit(ctx context.Context, sourceKey string) error
}

// Orchestrator runs the processing pipeline for one uploaded file: check
// funds, mark processing, invoke the transcoder, discover artifacts, persist
// clips, debit credits, mark processed. Every step is safe to re-apply, so a
// bounded whole-run retry (owned by the dispatcher) needs no checkpointing.
type Orchestrator struct {
	store   Store
	lister  ObjectLister
	invoker TranscodeInvoker
	logger  *zap.Logger
}

func NewOrchestrator(store Store, lister ObjectLister, invoker TranscodeInvoker, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		lister:  lister,
		invoker: invoker,
		logger:  logger,
	}
}

// Run executes one pipeline attempt for the uploaded file. A missing record
// surfaces upload.ErrNotFound, which callers must treat as fatal. An empty
// balance is not an error; the run ends in no_credits. Any failure after the
// file is marked processing flips it to failed and is returned for the
// caller's retry policy; a later successful attempt overwrites the status.
func (o *Orchestrator) Run(ctx context.Context, uploadedFileID uuid.UUID) error {
	info, err := o.store.LoadFundingInfo(ctx, uploadedFileID)
	if err != nil {
		return fmt.Errorf("failed to load funding info: %w", err)
	}

	if info.Credits <= 0 {
		o.logger.Info("Upload has no credits, skipping processing",
			zap.String("upload_id", uploadedFileID.String()),
			zap.String("user_id", info.UserID.String()))
		if err := o.store.SetStatus(ctx, uploadedFileID, upload.StatusNoCredits); err != nil {
			return fmt.Errorf("failed to mark no_credits: %w", err)
		}
		return nil
	}

	if err := o.process(ctx, uploadedFileID, info); err != nil {
		o.logger.Error("Processing failed",
			zap.String("upload_id", uploadedFileID.String()),
			zap.Error(err))
		if markErr := o.store.SetStatus(ctx, uploadedFileID, upload.StatusFailed); markErr != nil {
			o.logger.Error("Failed to mark upload as failed",
				zap.String("upload_id", uploadedFileID.String()),
				zap.Error(markErr))
		}
		return err
	}

	return nil
}

func (o *Orchestrator) process(ctx context.Context, uploadedFileID uuid.UUID, info *upload.FundingInfo) error {
	// Visible "processing" state must land before the external call so a
	// crash mid-run never leaves the file silently stuck at queued.
	if err := o.store.SetStatus(ctx, uploadedFileID, upload.StatusProcessing); err != nil {
		return fmt.Errorf("failed to mark processing: %w", err)
	}

	if err := o.invoker.Submit(ctx, info.S3Key); err != nil {
		return fmt.Errorf("failed to submit transcode job: %w", err)
	}

	prefix := upload.FolderPrefix(info.S3Key)
	keys, err := o.lister.ListByPrefix(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to list artifacts under %q: %w", prefix, err)
	}

	// Every object under the upload's folder except the source itself is a
	// produced clip. Zero clips is a valid outcome, not a failure.
	clipKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		if key != "" && key != info.S3Key {
			clipKeys = append(clipKeys, key)
		}
	}

	inserted, err := o.store.InsertClips(ctx, uploadedFileID, info.UserID, clipKeys)
	if err != nil {
		return fmt.Errorf("failed to persist clips: %w", err)
	}

	// One credit per newly recorded clip, capped at the balance seen at check
	// time. Re-runs insert nothing new and therefore debit nothing.
	debit := inserted
	if info.Credits < debit {
		debit = info.Credits
	}
	if err := o.store.DecrementCredits(ctx, info.UserID, debit); err != nil {
		return fmt.Errorf("failed to debit credits: %w", err)
	}

	if err := o.store.SetStatus(ctx, uploadedFileID, upload.StatusProcessed); err != nil {
		return fmt.Errorf("failed to mark processed: %w", err)
	}

	o.logger.Info("Upload processed",
		zap.String("upload_id", uploadedFileID.String()),
		zap.String("user_id", info.UserID.String()),
		zap.Int("clips_discovered", len(clipKeys)),
		zap.Int64("clips_created", inserted),
		zap.Int64("credits_debited", debit))
	return nil
}
