// Package transcoder calls the external clip-processing endpoint. The call
// is fire-and-forget from the pipeline's point of view: results show up as
// new objects in the store, not in the response body.
package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/config"
)

type Client struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
	logger     *zap.Logger
}

type submitRequest struct {
	S3Key string `json:"s3_key"`
}

func NewClient(cfg config.TranscoderConfig, logger *zap.Logger) *Client {
	return &Client{
		endpoint:  cfg.Endpoint,
		authToken: cfg.AuthToken,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		logger: logger,
	}
}

// Submit asks the transcoding service to process the given source object.
// Any non-2xx response or transport error is returned as a failure; the
// caller owns the retry policy.
func (c *Client) Submit(ctx context.Context, sourceKey string) error {
	body, err := json.Marshal(submitRequest{S3Key: sourceKey})
	if err != nil {
		return fmt.Errorf("failed to encode transcode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build transcode request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.authToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transcode request failed: %w", err)
	}
	defer resp.Body.Close()

	// No response payload is consumed; drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("transcoder returned status %d", resp.StatusCode)
	}

	c.logger.Info("Transcode job submitted",
		zap.String("source_key", sourceKey),
		zap.Duration("duration", time.Since(start)))
	return nil
}
