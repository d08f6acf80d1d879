package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/upload"
)

// UploadStore is the record-store surface the upload handlers need.
type UploadStore interface {
	CreateUpload(ctx context.Context, userID uuid.UUID, s3Key, displayName string) (*upload.UploadedFile, error)
	GetUpload(ctx context.Context, id uuid.UUID) (*upload.UploadedFile, error)
	ListClips(ctx context.Context, uploadedFileID uuid.UUID) ([]upload.Clip, error)
}

// Presigner issues temporary object-store URLs so media bytes never pass
// through this server.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// UploadsHandler registers uploads and serves their status. The status field
// is the only processing signal surfaced to the user.
type UploadsHandler struct {
	store     UploadStore
	presigner Presigner
	uploadTTL time.Duration
	clipTTL   time.Duration
	logger    *zap.Logger
}

func NewUploadsHandler(store UploadStore, presigner Presigner, uploadTTL, clipTTL time.Duration, logger *zap.Logger) *UploadsHandler {
	return &UploadsHandler{
		store:     store,
		presigner: presigner,
		uploadTTL: uploadTTL,
		clipTTL:   clipTTL,
		logger:    logger,
	}
}

type createUploadRequest struct {
	UserID      string `json:"user_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type createUploadResponse struct {
	UploadID  uuid.UUID `json:"upload_id"`
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
}

// Create registers an uploaded file and returns a signed PUT URL for the
// source object at "<folder>/original.<ext>".
func (h *UploadsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Filename == "" || req.ContentType == "" {
		http.Error(w, "filename and content_type are required", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	key := fmt.Sprintf("%s/original%s", uuid.New(), path.Ext(req.Filename))

	uploadURL, err := h.presigner.PresignUpload(r.Context(), key, req.ContentType, h.uploadTTL)
	if err != nil {
		h.logger.Error("Failed to presign upload", zap.String("key", key), zap.Error(err))
		http.Error(w, "Failed to create upload URL", http.StatusInternalServerError)
		return
	}

	file, err := h.store.CreateUpload(r.Context(), userID, key, req.Filename)
	if err != nil {
		h.logger.Error("Failed to create upload record", zap.String("key", key), zap.Error(err))
		http.Error(w, "Failed to register upload", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Upload registered",
		zap.String("upload_id", file.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("key", key))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createUploadResponse{
		UploadID:  file.ID,
		Key:       key,
		UploadURL: uploadURL,
	})
}

type clipResponse struct {
	ID    uuid.UUID `json:"id"`
	S3Key string    `json:"s3_key"`
	URL   string    `json:"url,omitempty"`
}

type getUploadResponse struct {
	ID          uuid.UUID      `json:"id"`
	DisplayName string         `json:"display_name"`
	Status      upload.Status  `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	Clips       []clipResponse `json:"clips"`
}

// Get returns an upload's status and its clips with temporary playback URLs.
func (h *UploadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid upload ID", http.StatusBadRequest)
		return
	}

	file, err := h.store.GetUpload(r.Context(), id)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			http.Error(w, "Upload not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get upload", zap.String("upload_id", id.String()), zap.Error(err))
		http.Error(w, "Failed to get upload", http.StatusInternalServerError)
		return
	}

	clips, err := h.store.ListClips(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list clips", zap.String("upload_id", id.String()), zap.Error(err))
		http.Error(w, "Failed to list clips", http.StatusInternalServerError)
		return
	}

	resp := getUploadResponse{
		ID:          file.ID,
		DisplayName: file.DisplayName,
		Status:      file.Status,
		CreatedAt:   file.CreatedAt,
		Clips:       make([]clipResponse, 0, len(clips)),
	}
	for _, clip := range clips {
		url, err := h.presigner.PresignDownload(r.Context(), clip.S3Key, h.clipTTL)
		if err != nil {
			h.logger.Warn("Failed to presign clip URL",
				zap.String("clip_id", clip.ID.String()),
				zap.Error(err))
		}
		resp.Clips = append(resp.Clips, clipResponse{
			ID:    clip.ID,
			S3Key: clip.S3Key,
			URL:   url,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
