package config

import (
	"fmt"
	"time"

	"github.com/mohitkumar/autoflow/action"
	"github.com/mohitkumar/autoflow/analytics"
	"github.com/mohitkumar/autoflow/logger"
)

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"
const STORAGE_TYPE_POSTGRES StorageType = "postgres"

type NotifierType string

const NOTIFIER_LOG NotifierType = "log"
const NOTIFIER_HTTP NotifierType = "http"
const NOTIFIER_REDIS NotifierType = "redis"

type Config struct {
	HttpPort        int
	GrpcPort        int
	StorageType     StorageType
	RedisConfig     RedisStorageConfig
	PostgresConfig  PostgresStorageConfig
	InMemoryConfig  InmemStorageConfig
	AnalyticsConfig analytics.DataCollectorConfig
	// AsyncEvents appends execution events from a background worker.
	AsyncEvents    bool
	EventQueueSize int
	LogConfig      logger.Config
	ActionConfig   ActionConfig
	Integrations   IntegrationConfig
	CacheTTL       time.Duration
	LogSkipped     bool
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
	Password  string
	PoolSize  int
}

type PostgresStorageConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type InmemStorageConfig struct {
	PartitionCount int
}

type ActionConfig struct {
	Timeout           time.Duration
	RetryPolicy       action.RetryPolicyType
	RetryAttempts     int
	RetryDelay        time.Duration
	RequestsPerSecond float64
	Burst             int
}

// IntegrationConfig holds credentials of optional integrations. An action
// type whose integration is not configured is not registered.
type IntegrationConfig struct {
	Completion        action.CompletionConfig
	SlackWebhookURL   string
	Github            action.GithubConfig
	SMTP              action.SMTPConfig
	CollaboratorURL   string
	CollaboratorToken string
	Notifier          NotifierType
}

func (c Config) Validate() error {
	switch c.StorageType {
	case STORAGE_TYPE_INMEM:
	case STORAGE_TYPE_REDIS:
		if len(c.RedisConfig.Addrs) == 0 {
			return fmt.Errorf("redis storage needs at least one address")
		}
	case STORAGE_TYPE_POSTGRES:
		if c.PostgresConfig.DSN == "" {
			return fmt.Errorf("postgres storage needs a dsn")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.StorageType)
	}
	switch c.AnalyticsConfig.CollectorType {
	case analytics.STORE_DATA_COLLECTOR, "":
	case analytics.LOG_FILE_DATA_COLLECTOR:
		if c.AnalyticsConfig.FileName == "" {
			return fmt.Errorf("file event collector needs a file name")
		}
	default:
		return fmt.Errorf("unknown event collector %q", c.AnalyticsConfig.CollectorType)
	}
	switch c.ActionConfig.RetryPolicy {
	case action.RETRY_POLICY_NONE, "":
	case action.RETRY_POLICY_FIXED, action.RETRY_POLICY_BACKOFF:
		if c.ActionConfig.RetryAttempts < 1 {
			return fmt.Errorf("retry policy %s needs at least one attempt", c.ActionConfig.RetryPolicy)
		}
	default:
		return fmt.Errorf("unknown retry policy %q", c.ActionConfig.RetryPolicy)
	}
	switch c.Integrations.Notifier {
	case NOTIFIER_LOG, "":
	case NOTIFIER_HTTP:
		if c.Integrations.CollaboratorURL == "" {
			return fmt.Errorf("http notifier needs a collaborator url")
		}
	case NOTIFIER_REDIS:
		if len(c.RedisConfig.Addrs) == 0 {
			return fmt.Errorf("redis notifier needs a redis address")
		}
	default:
		return fmt.Errorf("unknown notifier %q", c.Integrations.Notifier)
	}
	return nil
}
