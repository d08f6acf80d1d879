package config

type Config struct {
	Server     ServerConfig     `mapstructure:"server" json:"server"`
	Database   DatabaseConfig   `mapstructure:"database" json:"database"`
	Temporal   TemporalConfig   `mapstructure:"temporal" json:"temporal"`
	Storage    StorageConfig    `mapstructure:"storage" json:"storage"`
	Transcoder TranscoderConfig `mapstructure:"transcoder" json:"transcoder"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline" json:"pipeline"`
	Billing    BillingConfig    `mapstructure:"billing" json:"billing"`
	Logging    LoggingConfig    `mapstructure:"logging" json:"logging"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" json:"dsn"`
}

type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
	HostPort  string `mapstructure:"host_port" json:"host_port"`
	TaskQueue string `mapstructure:"task_queue" json:"task_queue"`
}

type StorageConfig struct {
	Type   string      `mapstructure:"type" json:"type"`
	Bucket string      `mapstructure:"bucket" json:"bucket"`
	S3     S3Config    `mapstructure:"s3" json:"s3"`
	Local  LocalConfig `mapstructure:"local" json:"local"`
}

type S3Config struct {
	Region          string `mapstructure:"region" json:"region"`
	AccessKeyID     string `mapstructure:"access_key" json:"access_key"`
	SecretAccessKey string `mapstructure:"secret_key" json:"secret_key"`
	// Endpoint overrides the AWS endpoint for S3-compatible stores (MinIO, R2).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
}

type LocalConfig struct {
	BasePath string `mapstructure:"base_path" json:"base_path"`
}

type TranscoderConfig struct {
	Endpoint   string `mapstructure:"endpoint" json:"endpoint"`
	AuthToken  string `mapstructure:"auth_token" json:"auth_token"`
	TimeoutSec int    `mapstructure:"timeout_sec" json:"timeout_sec"`
}

type RetryConfig struct {
	MaxAttempts        int32   `mapstructure:"max_attempts" json:"max_attempts"`
	InitialIntervalSec float64 `mapstructure:"initial_interval_sec" json:"initial_interval_sec"`
	BackoffCoefficient float64 `mapstructure:"backoff_coefficient" json:"backoff_coefficient"`
}

type PipelineConfig struct {
	Retry           RetryConfig `mapstructure:"retry" json:"retry"`
	UploadURLTTLSec int         `mapstructure:"upload_url_ttl_sec" json:"upload_url_ttl_sec"`
	ClipURLTTLSec   int         `mapstructure:"clip_url_ttl_sec" json:"clip_url_ttl_sec"`
}

type BillingConfig struct {
	StripeSecretKey     string `mapstructure:"stripe_secret_key" json:"stripe_secret_key"`
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret" json:"stripe_webhook_secret"`
	SmallPackPriceID    string `mapstructure:"small_pack_price_id" json:"small_pack_price_id"`
	MediumPackPriceID   string `mapstructure:"medium_pack_price_id" json:"medium_pack_price_id"`
	LargePackPriceID    string `mapstructure:"large_pack_price_id" json:"large_pack_price_id"`
	SuccessURL          string `mapstructure:"success_url" json:"success_url"`
	CancelURL           string `mapstructure:"cancel_url" json:"cancel_url"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level" json:"level"`
	Output   string `mapstructure:"output" json:"output"`
	FilePath string `mapstructure:"file_path" json:"file_path"`
}
