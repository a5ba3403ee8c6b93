package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mohitkumar/autoflow/action"
	"github.com/mohitkumar/autoflow/agent"
	"github.com/mohitkumar/autoflow/analytics"
	"github.com/mohitkumar/autoflow/config"
	"github.com/mohitkumar/autoflow/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().Int("grpc-port", 8099, "grpc port for execution requests")
	cmd.Flags().String("storage-impl", "memory", "storage implementation: memory, redis or postgres")
	cmd.Flags().Int("partitions", 64, "partition count of the in memory storage")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("redis-password", "", "redis password")
	cmd.Flags().Int("redis-pool-size", 0, "redis connection pool size, 0 uses the client default")
	cmd.Flags().String("namespace", "autoflow", "namespace used in storage")
	cmd.Flags().String("postgres-dsn", "", "postgres connection string")
	cmd.Flags().Int("postgres-max-open", 20, "max open postgres connections")
	cmd.Flags().Int("postgres-max-idle", 5, "max idle postgres connections")

	cmd.Flags().String("event-collector", "store", "where execution events go: store or file")
	cmd.Flags().String("event-file", "", "event file used by the file collector")
	cmd.Flags().Bool("async-events", true, "append execution events from a background worker")
	cmd.Flags().Int("event-queue-size", 1024, "capacity of the event queue")
	cmd.Flags().Bool("log-skipped", false, "record workflow_skipped events")
	cmd.Flags().Duration("cache-ttl", 0, "ttl of cached workflow definitions, 0 disables the cache; the cache is per process, use it only with a single instance")

	cmd.Flags().Duration("action-timeout", action.DefaultActionTimeout, "default per action timeout")
	cmd.Flags().String("retry-policy", "none", "retry policy of failed actions: none, fixed or backoff")
	cmd.Flags().Int("retry-attempts", 0, "retries per action")
	cmd.Flags().Duration("retry-delay", 0, "delay between retries")
	cmd.Flags().Float64("outbound-rps", 0, "outbound request rate limit, 0 disables it")
	cmd.Flags().Int("outbound-burst", 1, "outbound request burst")

	cmd.Flags().String("completion-url", "https://api.openai.com/v1", "chat completion api base url")
	cmd.Flags().String("completion-key", "", "chat completion api key")
	cmd.Flags().String("completion-model", "gpt-4o-mini", "default completion model")
	cmd.Flags().String("slack-webhook", "", "slack incoming webhook url")
	cmd.Flags().String("github-url", "", "github api url")
	cmd.Flags().String("github-token", "", "github token")
	cmd.Flags().String("smtp-host", "", "smtp host")
	cmd.Flags().Int("smtp-port", 587, "smtp port")
	cmd.Flags().String("smtp-user", "", "smtp user")
	cmd.Flags().String("smtp-password", "", "smtp password")
	cmd.Flags().String("smtp-from", "", "sender address of emails")
	cmd.Flags().String("collaborator-url", "", "base url of the notification and document service")
	cmd.Flags().String("collaborator-token", "", "token of the notification and document service")
	cmd.Flags().String("notifier", "log", "notification backend: log, http or redis")

	cmd.Flags().String("log-level", "info", "log level")
	cmd.Flags().Bool("log-development", false, "human readable development logging")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)
	viper.SetEnvPrefix("AUTOFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFile != "" {
			return err
		}
	}

	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.GrpcPort = viper.GetInt("grpc-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.InMemoryConfig.PartitionCount = viper.GetInt("partitions")
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Password = viper.GetString("redis-password")
	c.cfg.RedisConfig.PoolSize = viper.GetInt("redis-pool-size")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.PostgresConfig.DSN = viper.GetString("postgres-dsn")
	c.cfg.PostgresConfig.MaxOpenConns = viper.GetInt("postgres-max-open")
	c.cfg.PostgresConfig.MaxIdleConns = viper.GetInt("postgres-max-idle")

	c.cfg.AnalyticsConfig.CollectorType = analytics.DataCollectorType(viper.GetString("event-collector"))
	c.cfg.AnalyticsConfig.FileName = viper.GetString("event-file")
	c.cfg.AsyncEvents = viper.GetBool("async-events")
	c.cfg.EventQueueSize = viper.GetInt("event-queue-size")
	c.cfg.LogSkipped = viper.GetBool("log-skipped")
	c.cfg.CacheTTL = viper.GetDuration("cache-ttl")

	c.cfg.ActionConfig.Timeout = viper.GetDuration("action-timeout")
	c.cfg.ActionConfig.RetryPolicy = action.RetryPolicyType(viper.GetString("retry-policy"))
	c.cfg.ActionConfig.RetryAttempts = viper.GetInt("retry-attempts")
	c.cfg.ActionConfig.RetryDelay = viper.GetDuration("retry-delay")
	c.cfg.ActionConfig.RequestsPerSecond = viper.GetFloat64("outbound-rps")
	c.cfg.ActionConfig.Burst = viper.GetInt("outbound-burst")

	c.cfg.Integrations.Completion = action.CompletionConfig{
		BaseURL: viper.GetString("completion-url"),
		APIKey:  viper.GetString("completion-key"),
		Model:   viper.GetString("completion-model"),
	}
	c.cfg.Integrations.SlackWebhookURL = viper.GetString("slack-webhook")
	c.cfg.Integrations.Github = action.GithubConfig{
		BaseURL: viper.GetString("github-url"),
		Token:   viper.GetString("github-token"),
	}
	c.cfg.Integrations.SMTP = action.SMTPConfig{
		Host:     viper.GetString("smtp-host"),
		Port:     viper.GetInt("smtp-port"),
		Username: viper.GetString("smtp-user"),
		Password: viper.GetString("smtp-password"),
		From:     viper.GetString("smtp-from"),
	}
	c.cfg.Integrations.CollaboratorURL = viper.GetString("collaborator-url")
	c.cfg.Integrations.CollaboratorToken = viper.GetString("collaborator-token")
	c.cfg.Integrations.Notifier = config.NotifierType(viper.GetString("notifier"))

	c.cfg.LogConfig = logger.Config{
		Level:       viper.GetString("log-level"),
		Development: viper.GetBool("log-development"),
	}
	return logger.Init(c.cfg.LogConfig)
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		return err
	}
	if err = agent.Start(); err != nil {
		agent.Shutdown()
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-agent.Done():
	}
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "autoflow",
		Short:   "rule based workflow automation engine",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
