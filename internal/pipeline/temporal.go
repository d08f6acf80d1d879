package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/upload"
)

// ProcessUploadWorkflow drives one pipeline run. The whole run is a single
// activity retried as a unit: every step inside is idempotent, so replaying
// the sequence from scratch is harmless and no per-step checkpointing is
// needed. A missing upload record is non-retryable.
func ProcessUploadWorkflow(ctx workflow.Context, uploadedFileID uuid.UUID) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting upload processing workflow", "upload_id", uploadedFileID.String())

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        2, // one retry on top of the initial attempt
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			NonRetryableErrorTypes: []string{"NotFound"},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	return workflow.ExecuteActivity(ctx, "ProcessUpload", uploadedFileID).Get(ctx, nil)
}

// Activities holds dependencies for the pipeline activity.
type Activities struct {
	orchestrator *Orchestrator
}

func NewActivities(orchestrator *Orchestrator) *Activities {
	return &Activities{orchestrator: orchestrator}
}

// ProcessUpload runs the full pipeline for one uploaded file.
func (a *Activities) ProcessUpload(ctx context.Context, uploadedFileID uuid.UUID) error {
	err := a.orchestrator.Run(ctx, uploadedFileID)
	if errors.Is(err, upload.ErrNotFound) {
		return temporal.NewNonRetryableApplicationError("upload record not found", "NotFound", err)
	}
	return err
}

// TemporalWorker hosts the pipeline workflow and activity on a task queue.
type TemporalWorker struct {
	client     client.Client
	worker     worker.Worker
	taskQueue  string
	activities *Activities
	logger     *zap.Logger
}

func NewTemporalWorker(c client.Client, orchestrator *Orchestrator, taskQueue string, logger *zap.Logger) *TemporalWorker {
	return &TemporalWorker{
		client:     c,
		taskQueue:  taskQueue,
		activities: NewActivities(orchestrator),
		logger:     logger,
	}
}

func (tw *TemporalWorker) Start() error {
	tw.worker = worker.New(tw.client, tw.taskQueue, worker.Options{})
	tw.worker.RegisterWorkflow(ProcessUploadWorkflow)
	tw.worker.RegisterActivity(tw.activities.ProcessUpload)
	return tw.worker.Start()
}

func (tw *TemporalWorker) Stop() {
	if tw.worker != nil {
		tw.worker.Stop()
	}
}

// TemporalDispatcher starts one workflow per uploaded file. The workflow ID
// is derived from the file identity, so duplicate triggers for a file whose
// run is still executing collapse into the existing run.
type TemporalDispatcher struct {
	client    client.Client
	taskQueue string
	logger    *zap.Logger
}

func NewTemporalDispatcher(c client.Client, taskQueue string, logger *zap.Logger) *TemporalDispatcher {
	return &TemporalDispatcher{
		client:    c,
		taskQueue: taskQueue,
		logger:    logger,
	}
}

func (d *TemporalDispatcher) Dispatch(ctx context.Context, uploadedFileID uuid.UUID) error {
	options := client.StartWorkflowOptions{
		ID:                       fmt.Sprintf("process-upload-%s", uploadedFileID),
		TaskQueue:                d.taskQueue,
		WorkflowExecutionTimeout: 30 * time.Minute,
	}

	we, err := d.client.ExecuteWorkflow(ctx, options, ProcessUploadWorkflow, uploadedFileID)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			d.logger.Info("Run already in flight, dropping duplicate trigger",
				zap.String("upload_id", uploadedFileID.String()))
			return nil
		}
		return fmt.Errorf("failed to start workflow: %w", err)
	}

	d.logger.Info("Pipeline workflow started",
		zap.String("workflow_id", we.GetID()),
		zap.String("run_id", we.GetRunID()))
	return nil
}
