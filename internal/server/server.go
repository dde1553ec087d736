package server

import (
	"context"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/oncall/internal/api/consumer"
	"github.com/Zereker/oncall/internal/api/http"
	"github.com/Zereker/oncall/internal/classify"
	"github.com/Zereker/oncall/internal/conversation"
	"github.com/Zereker/oncall/internal/workflow"
	genkitpkg "github.com/Zereker/oncall/pkg/genkit"
	"github.com/Zereker/oncall/pkg/knowledge"
	"github.com/Zereker/oncall/pkg/log"
	"github.com/Zereker/oncall/pkg/mq"
	"github.com/Zereker/oncall/pkg/paging"
	"github.com/Zereker/oncall/pkg/redis"
	"github.com/Zereker/oncall/pkg/ticket"
)

// Server represents the oncall server
type Server struct {
	config       Config
	logger       *slog.Logger
	orchestrator *workflow.Orchestrator
	classifier   classify.Classifier
	consumer     *consumer.Consumer
}

// NewServer creates a new server with the given configuration
func NewServer(conf Config) (*Server, error) {
	server := &Server{
		config: conf,
	}

	if err := server.initDepend(); err != nil {
		return nil, errors.WithMessage(err, "init server dependency failed")
	}

	if err := server.initOrchestrator(); err != nil {
		return nil, errors.WithMessage(err, "init orchestrator failed")
	}

	if err := server.initConsumer(); err != nil {
		return nil, errors.WithMessage(err, "init consumer failed")
	}

	return server, nil
}

// initDepend initializes all dependencies
func (s *Server) initDepend() error {
	// Initialize log first
	if err := log.Init(s.config.Log); err != nil {
		return errors.WithMessage(err, "failed to init log")
	}

	// Create logger for this module
	s.logger = log.Logger("server")
	s.logger.Info("initializing dependencies")

	ctx := context.Background()

	// Initialize Genkit with all configured models
	s.logger.Info("initializing genkit models")
	if err := genkitpkg.Init(ctx, s.config.Models); err != nil {
		return errors.WithMessage(err, "failed to init models")
	}

	// Initialize OpenSearch knowledge base
	s.logger.Info("initializing knowledge base")
	if err := knowledge.Init(s.config.Knowledge); err != nil {
		return errors.WithMessage(err, "failed to init knowledge base")
	}

	// Initialize Kafka message queue
	s.logger.Info("initializing message queue")
	if err := mq.Init(s.config.Kafka); err != nil {
		return errors.WithMessage(err, "failed to init message queue")
	}

	// Initialize Redis
	s.logger.Info("initializing redis")
	if err := redis.Init(s.config.Redis); err != nil {
		return errors.WithMessage(err, "failed to init redis")
	}

	return nil
}

// initOrchestrator wires the workflow pipeline: catalog, executor,
// composer, conversation store and classifier.
func (s *Server) initOrchestrator() error {
	s.logger.Info("initializing orchestrator", "catalog", s.config.Catalog.File)

	catalog, err := workflow.LoadCatalog(s.config.Catalog.File)
	if err != nil {
		return errors.WithMessage(err, "failed to load workflow catalog")
	}

	var searcher knowledge.Searcher
	if s.config.Knowledge.Enabled {
		searcher = knowledge.NewSearcher()
	}

	var notifier paging.Notifier
	if s.config.Kafka.Enabled {
		notifier = paging.NewQueueNotifier(mq.NewQueue(), s.config.Paging.Topic)
	} else {
		notifier = paging.NewLogNotifier()
	}

	tickets, err := ticket.New(s.config.Ticket)
	if err != nil {
		return errors.WithMessage(err, "failed to create ticket system")
	}

	var memory conversation.Store
	if s.config.Redis.Enabled {
		memory = conversation.NewRedisStore(redis.Client())
	} else {
		memory = conversation.NewMemoryStore()
	}

	executor := workflow.NewExecutor(searcher, notifier, tickets)
	composer := workflow.NewComposer(catalog, searcher)

	s.orchestrator = workflow.NewOrchestrator(catalog, executor, composer, memory)
	s.classifier = classify.NewLLMClassifier()

	return nil
}

// initConsumer initializes the channel event consumer
func (s *Server) initConsumer() error {
	s.logger.Info("initializing consumer")

	c, err := consumer.NewConsumer(s.orchestrator, s.classifier, mq.NewQueue(), consumer.Config{
		Kafka: s.config.Kafka,
	})
	if err != nil {
		return errors.WithMessage(err, "failed to create consumer")
	}

	s.consumer = c
	return nil
}

// Start starts the HTTP server and consumers
func (s *Server) Start() error {
	s.logger.Info("starting", "port", s.config.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		s.logger.Info("received shutdown signal")
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)

	// Start consumer
	if s.consumer != nil {
		g.Go(func() error {
			return s.runConsumer(ctx)
		})
	}

	g.Go(func() error {
		return s.runHTTPServer(ctx)
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down")

	// Stop consumer
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			s.logger.Error("failed to stop consumer", "error", err)
		}
	}

	if producer := mq.NewQueue(); producer != nil {
		if err := producer.Close(); err != nil {
			s.logger.Error("failed to close producer", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		s.logger.Error("failed to close redis", "error", err)
	}

	return nil
}

func (s *Server) runHTTPServer(ctx context.Context) error {
	serverCfg := http.DefaultServerConfig()
	serverCfg.Port = s.config.Server.Port

	srv := http.NewServer(s.orchestrator, s.classifier, serverCfg)

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return errors.WithMessage(err, "http server error")
	}
	return nil
}

func (s *Server) runConsumer(ctx context.Context) error {
	if err := s.consumer.Start(ctx); err != nil {
		return errors.WithMessage(err, "consumer start error")
	}

	// Wait for context cancellation
	<-ctx.Done()

	return s.consumer.Stop()
}
