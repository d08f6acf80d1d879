package storage

import (
	"fmt"

	cfg "github.com/yakuphankucukkesim/resonora-ai/internal/config"
)

func NewStorage(storageCfg cfg.StorageConfig) (Storage, error) {
	switch storageCfg.Type {
	case "s3":
		return NewS3Storage(storageCfg.Bucket, storageCfg.S3)
	case "local":
		return NewLocalStorage(storageCfg.Local)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", storageCfg.Type)
	}
}
