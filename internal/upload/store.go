package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles database operations for uploaded files, clips and credit
// balances.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a new upload store.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// CreateUpload registers a new uploaded file with status queued.
func (s *Store) CreateUpload(ctx context.Context, userID uuid.UUID, s3Key, displayName string) (*UploadedFile, error) {
	file := &UploadedFile{
		ID:          uuid.New(),
		UserID:      userID,
		S3Key:       s3Key,
		DisplayName: displayName,
		Status:      StatusQueued,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	query := `
		INSERT INTO uploaded_files (id, user_id, s3_key, display_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		file.ID, file.UserID, file.S3Key, file.DisplayName,
		file.Status, file.CreatedAt, file.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload: %w", err)
	}

	return file, nil
}

// GetUpload retrieves an uploaded file by ID.
func (s *Store) GetUpload(ctx context.Context, id uuid.UUID) (*UploadedFile, error) {
	query := `
		SELECT id, user_id, s3_key, display_name, status, created_at, updated_at
		FROM uploaded_files
		WHERE id = $1
	`

	var file UploadedFile
	err := s.db.QueryRow(ctx, query, id).Scan(
		&file.ID, &file.UserID, &file.S3Key, &file.DisplayName,
		&file.Status, &file.CreatedAt, &file.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}

	return &file, nil
}

// LoadFundingInfo loads the owner, current credit balance and source key for
// an uploaded file. Returns ErrNotFound if the record does not exist.
func (s *Store) LoadFundingInfo(ctx context.Context, id uuid.UUID) (*FundingInfo, error) {
	query := `
		SELECT f.user_id, u.credits, f.s3_key
		FROM uploaded_files f
		JOIN users u ON u.id = f.user_id
		WHERE f.id = $1
	`

	var info FundingInfo
	err := s.db.QueryRow(ctx, query, id).Scan(&info.UserID, &info.Credits, &info.S3Key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load funding info: %w", err)
	}

	return &info, nil
}

// SetStatus updates the status of an uploaded file. Overwrites are
// idempotent, so repeating a pipeline run is harmless.
func (s *Store) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `
		UPDATE uploaded_files
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := s.db.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	return nil
}

// InsertClips bulk-inserts one clip row per object key and returns the number
// of rows actually inserted. Keys already recorded are skipped via the unique
// constraint on s3_key, which makes re-runs safe and keeps the returned count
// equal to the newly discovered artifacts only.
func (s *Store) InsertClips(ctx context.Context, uploadedFileID, userID uuid.UUID, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO clips (id, s3_key, uploaded_file_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (s3_key) DO NOTHING
	`

	batch := &pgx.Batch{}
	now := time.Now()
	for _, key := range keys {
		batch.Queue(query, uuid.New(), key, uploadedFileID, userID, now)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range keys {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert clips: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	return inserted, nil
}

// ListClips returns all clips recorded for an uploaded file.
func (s *Store) ListClips(ctx context.Context, uploadedFileID uuid.UUID) ([]Clip, error) {
	query := `
		SELECT id, s3_key, uploaded_file_id, user_id, created_at
		FROM clips
		WHERE uploaded_file_id = $1
		ORDER BY created_at, s3_key
	`

	rows, err := s.db.Query(ctx, query, uploadedFileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clips: %w", err)
	}
	defer rows.Close()

	var clips []Clip
	for rows.Next() {
		var clip Clip
		if err := rows.Scan(&clip.ID, &clip.S3Key, &clip.UploadedFileID, &clip.UserID, &clip.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clips: %w", err)
	}

	return clips, nil
}

// DecrementCredits debits a user's balance by at most amount. The clamp is
// evaluated inside the UPDATE so concurrent runs and credit grants cannot
// drive the balance negative or lose updates.
func (s *Store) DecrementCredits(ctx context.Context, userID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return nil
	}

	query := `
		UPDATE users
		SET credits = credits - LEAST(credits, $2::bigint)
		WHERE id = $1
	`

	_, err := s.db.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to decrement credits: %w", err)
	}

	return nil
}

// AddCredits grants credits to the user owning a Stripe customer ID. The
// write is additive, never an overwrite, so it composes with concurrent
// debits.
func (s *Store) AddCredits(ctx context.Context, stripeCustomerID string, amount int64) error {
	query := `
		UPDATE users
		SET credits = credits + $2::bigint
		WHERE stripe_customer_id = $1
	`

	tag, err := s.db.Exec(ctx, query, stripeCustomerID, amount)
	if err != nil {
		return fmt.Errorf("failed to add credits: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// GetStripeCustomerID returns the Stripe customer ID linked to a user.
func (s *Store) GetStripeCustomerID(ctx context.Context, userID uuid.UUID) (string, error) {
	query := `
		SELECT stripe_customer_id
		FROM users
		WHERE id = $1
	`

	var customerID *string
	err := s.db.QueryRow(ctx, query, userID).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get stripe customer id: %w", err)
	}
	if customerID == nil || *customerID == "" {
		return "", fmt.Errorf("user %s has no stripe customer id", userID)
	}

	return *customerID, nil
}
