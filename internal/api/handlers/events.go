package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher enqueues a pipeline run for an uploaded file.
type Dispatcher interface {
	Dispatch(ctx context.Context, uploadedFileID uuid.UUID) error
}

// EventsHandler receives "file uploaded" signals. Delivery is at least once;
// the pipeline run behind the dispatcher is idempotent per file identity.
type EventsHandler struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

func NewEventsHandler(dispatcher Dispatcher, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type uploadedEvent struct {
	UploadedFileID string `json:"uploadedFileId"`
}

// HandleUploaded enqueues one pipeline run for the uploaded file and returns
// immediately.
func (h *EventsHandler) HandleUploaded(w http.ResponseWriter, r *http.Request) {
	var event uploadedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	uploadedFileID, err := uuid.Parse(event.UploadedFileID)
	if err != nil {
		http.Error(w, "Invalid uploaded file ID", http.StatusBadRequest)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), uploadedFileID); err != nil {
		h.logger.Error("Failed to dispatch pipeline run",
			zap.String("upload_id", uploadedFileID.String()),
			zap.Error(err))
		http.Error(w, "Failed to start processing", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Processing triggered", zap.String("upload_id", uploadedFileID.String()))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Processing started",
	})
}
