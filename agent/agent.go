package agent

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/mohitkumar/autoflow/action"
	"github.com/mohitkumar/autoflow/analytics"
	"github.com/mohitkumar/autoflow/config"
	"github.com/mohitkumar/autoflow/engine"
	"github.com/mohitkumar/autoflow/logger"
	"github.com/mohitkumar/autoflow/metadata"
	"github.com/mohitkumar/autoflow/persistence"
	"github.com/mohitkumar/autoflow/persistence/memory"
	"github.com/mohitkumar/autoflow/persistence/postgres"
	"github.com/mohitkumar/autoflow/persistence/redis"
	"github.com/mohitkumar/autoflow/rest"
	"github.com/mohitkumar/autoflow/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const storageConnectTimeout = 10 * time.Second

type Agent struct {
	Config          config.Config
	storage         persistence.Storage
	events          *analytics.Logger
	httpClient      *action.HTTPClient
	notifier        action.Notifier
	dispatcher      *action.Dispatcher
	workflowService *metadata.WorkflowServiceImpl
	engine          *engine.Engine
	httpServer      *rest.Server
	grpcServer      *grpc.Server
	grpcListener    net.Listener
	shutdown        bool
	shutdowns       chan struct{}
	shutdownLock    sync.Mutex
	wg              sync.WaitGroup
}

func New(config config.Config) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	a := &Agent{
		Config:    config,
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupStorage,
		a.setupEventLogger,
		a.setupDispatcher,
		a.setupWorkflowService,
		a.setupEngine,
		a.setupHttpServer,
		a.setupGrpcServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			a.closeResources()
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) redisConfig() redis.Config {
	return redis.Config{
		Addrs:     a.Config.RedisConfig.Addrs,
		Namespace: a.Config.RedisConfig.Namespace,
		Password:  a.Config.RedisConfig.Password,
		PoolSize:  a.Config.RedisConfig.PoolSize,
	}
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		s := redis.NewRedisStorage(a.redisConfig())
		ctx, cancel := context.WithTimeout(context.Background(), storageConnectTimeout)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return fmt.Errorf("connecting to redis: %w", err)
		}
		a.storage = s
	case config.STORAGE_TYPE_POSTGRES:
		ctx, cancel := context.WithTimeout(context.Background(), storageConnectTimeout)
		defer cancel()
		s, err := postgres.NewPostgresStorage(ctx, postgres.Config{
			DSN:          a.Config.PostgresConfig.DSN,
			MaxOpenConns: a.Config.PostgresConfig.MaxOpenConns,
			MaxIdleConns: a.Config.PostgresConfig.MaxIdleConns,
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.storage = s
	default:
		a.storage = memory.NewMemoryStorage(a.Config.InMemoryConfig.PartitionCount)
	}
	logger.Info("storage ready", zap.String("type", string(a.Config.StorageType)))
	return nil
}

func (a *Agent) setupEventLogger() error {
	collector, err := analytics.NewDataCollector(a.Config.AnalyticsConfig, a.storage)
	if err != nil {
		return err
	}
	var opts []analytics.Option
	if a.Config.AsyncEvents {
		opts = append(opts, analytics.WithAsync(a.Config.EventQueueSize))
	}
	a.events = analytics.NewLogger(collector, opts...)
	return nil
}

func (a *Agent) setupDispatcher() error {
	ac := a.Config.ActionConfig
	a.httpClient = action.NewHTTPClient(action.HTTPClientConfig{
		Timeout:           ac.Timeout,
		RequestsPerSecond: ac.RequestsPerSecond,
		Burst:             ac.Burst,
	})
	opts := []action.Option{
		action.WithRetryPolicy(action.NewRetryPolicy(ac.RetryPolicy, ac.RetryAttempts, ac.RetryDelay)),
	}
	if ac.Timeout > 0 {
		opts = append(opts, action.WithTimeout(ac.Timeout))
	}
	a.dispatcher = action.NewDispatcher(opts...)

	ic := a.Config.Integrations
	var collaborator *action.HTTPCollaborator
	if ic.CollaboratorURL != "" {
		collaborator = action.NewHTTPCollaborator(a.httpClient, ic.CollaboratorURL, ic.CollaboratorToken)
	}
	switch ic.Notifier {
	case config.NOTIFIER_REDIS:
		a.notifier = redis.NewRedisNotifier(a.redisConfig())
	case config.NOTIFIER_HTTP:
		a.notifier = collaborator
	default:
		a.notifier = action.LogNotifier{}
	}

	a.dispatcher.Register(
		action.NewWebhookHandler(a.httpClient),
		action.NewJsHandler(),
		action.NewTransformHandler(),
		action.NewDelayHandler(),
		action.NewNotificationHandler(a.notifier),
	)
	if ic.Completion.APIKey != "" {
		a.dispatcher.Register(action.NewCompletionHandler(a.httpClient, ic.Completion))
	}
	if ic.SlackWebhookURL != "" {
		a.dispatcher.Register(action.NewSlackHandler(a.httpClient, ic.SlackWebhookURL))
	}
	if ic.Github.Token != "" {
		a.dispatcher.Register(action.NewGithubHandler(a.httpClient, ic.Github))
	}
	if ic.SMTP.Host != "" {
		a.dispatcher.Register(action.NewEmailHandler(ic.SMTP))
	}
	if collaborator != nil {
		a.dispatcher.Register(action.NewDocumentHandler(collaborator))
	}
	logger.Info("action handlers registered", zap.Any("kinds", a.dispatcher.Kinds()))
	return nil
}

func (a *Agent) setupWorkflowService() error {
	a.workflowService = metadata.NewWorkflowService(a.storage, a.dispatcher, a.events, a.Config.CacheTTL)
	return nil
}

func (a *Agent) setupEngine() error {
	if err := engine.RegisterViews(); err != nil {
		return err
	}
	a.engine = engine.NewEngine(a.workflowService, a.dispatcher, a.storage, a.events,
		engine.WithLogSkipped(a.Config.LogSkipped))
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.workflowService, a.engine, a.storage)
	return err
}

func (a *Agent) setupGrpcServer() error {
	var err error
	a.grpcServer, err = rpc.NewGrpcServer(&rpc.GrpcConfig{Executor: a.engine})
	return err
}

// Engine exposes the execution entry point for embedding callers.
func (a *Agent) Engine() *engine.Engine {
	return a.engine
}

func (a *Agent) WorkflowService() metadata.WorkflowService {
	return a.workflowService
}

// GrpcAddr is the bound gRPC address once Start has returned.
func (a *Agent) GrpcAddr() string {
	if a.grpcListener == nil {
		return ""
	}
	return a.grpcListener.Addr().String()
}

func (a *Agent) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.Config.GrpcPort))
	if err != nil {
		return err
	}
	a.grpcListener = lis

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.Start(); err != nil {
			logger.Error("http server stopped", zap.Error(err))
			go a.Shutdown()
		}
	}()

	go func() {
		defer a.wg.Done()
		logger.Info("starting grpc server on", zap.String("addr", lis.Addr().String()))
		if err := a.grpcServer.Serve(lis); err != nil {
			logger.Error("grpc server stopped", zap.Error(err))
			go a.Shutdown()
		}
	}()
	return nil
}

// Done is closed once Shutdown begins.
func (a *Agent) Done() <-chan struct{} {
	return a.shutdowns
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.httpServer.Stop,
		func() error {
			logger.Info("stopping grpc server")
			a.grpcServer.GracefulStop()
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	return a.closeResources()
}

// closeResources flushes pending events before the storage they go to is
// closed.
func (a *Agent) closeResources() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.events != nil {
		keep(a.events.Stop())
	}
	if c, ok := a.notifier.(io.Closer); ok {
		keep(c.Close())
	}
	if a.storage != nil {
		keep(a.storage.Close())
	}
	return firstErr
}

var _ engine.EventRecorder = (*analytics.Logger)(nil)
var _ metadata.EventRecorder = (*analytics.Logger)(nil)
var _ engine.WorkflowLoader = (*metadata.WorkflowServiceImpl)(nil)
