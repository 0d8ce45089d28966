package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Core secrets (fill up for local development)
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`
	S3URL              string `envconfig:"S3_URL" required:"true"`
	S3Bucket           string `envconfig:"S3_BUCKET" required:"true"`
	S3Region           string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey        string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey        string `envconfig:"S3_SECRET_KEY" required:"true"`
	Environment        string `envconfig:"ENV" default:"development"`

	// HTTP
	Port                 string   `envconfig:"PORT" default:"8080"`
	APIBaseURL           string   `envconfig:"API_BASE_URL" default:"http://localhost:8080/v1"`
	CORSAllowedOrigins   []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	PresignExpiryMinutes int      `envconfig:"PRESIGN_EXPIRY_MINUTES" default:"15"`

	// Pub/Sub (audit events)
	GCPProjectID                  string `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost            string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubAuditTopic              string `envconfig:"PUBSUB_AUDIT_TOPIC" default:"deletion-audit"`
	DLQEndpointURL                string `envconfig:"DLQ_ENDPOINT_URL"`
	PubSubPushServiceAccountEmail string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`

	// Storage cleanup worker
	CleanupQueueName           string `envconfig:"CLEANUP_QUEUE_NAME" default:"storage_cleanup"`
	CleanupDeadLetterQueueName string `envconfig:"CLEANUP_DEAD_LETTER_QUEUE_NAME" default:"storage_cleanup_dlq"`
	CleanupPollTimeoutSec      int    `envconfig:"CLEANUP_POLL_TIMEOUT_SEC" default:"30"`
	CleanupPollMaxMsg          int    `envconfig:"CLEANUP_POLL_MAX_MSG" default:"1"`
	CleanupMaxRetries          int    `envconfig:"CLEANUP_MAX_RETRIES" default:"5"`
	CleanupBackoffInitialSec   int    `envconfig:"CLEANUP_BACKOFF_INITIAL_SEC" default:"1"`
	CleanupBackoffMaxSec       int    `envconfig:"CLEANUP_BACKOFF_MAX_SEC" default:"60"`

	// Scheduler
	SchedulerEnrollmentExpirySpec string `envconfig:"SCHEDULER_ENROLLMENT_EXPIRY_SPEC" default:"0 3 * * *"`
	SchedulerStaleUploadSpec      string `envconfig:"SCHEDULER_STALE_UPLOAD_SPEC" default:"*/30 * * * *"`
	StaleUploadAgeMinutes         int    `envconfig:"STALE_UPLOAD_AGE_MINUTES" default:"1440"`

	// Deletion policy
	DeletionCriticalUserThreshold       int `envconfig:"DELETION_CRITICAL_USER_THRESHOLD" default:"50"`
	DeletionCriticalEnrollmentThreshold int `envconfig:"DELETION_CRITICAL_ENROLLMENT_THRESHOLD" default:"10"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PresignExpiry returns the lifetime of presigned storage URLs.
func (c *Config) PresignExpiry() time.Duration {
	if c.PresignExpiryMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.PresignExpiryMinutes) * time.Minute
}

// IsDevelopment reports whether the app runs against local infrastructure.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// PubSubEnabled reports whether audit events can be published. The emulator
// counts as enabled as long as a project ID is set.
func (c *Config) PubSubEnabled() bool {
	return c.GCPProjectID != ""
}
