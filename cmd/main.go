package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"interview-coach/domain"
	"interview-coach/infrastructure"
	"interview-coach/interfaces"
	"interview-coach/service"
)

func main() {
	root := &cobra.Command{
		Use:          "interview-coach",
		Short:        "Interview practice API and feedback worker",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and in-process feedback workers when DISPATCH_MODE=inprocess)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "worker",
		Short: "Consume feedback jobs from RabbitMQ",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return worker(cmd.Context())
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app holds the dependencies shared by the serve and worker commands.
type app struct {
	cfg        *infrastructure.AppConfig
	log        *logrus.Logger
	feedback   *infrastructure.GormFeedbackStore
	interviews *infrastructure.GormInterviewStore
	cache      domain.StatusCache
	llm        domain.LLM
	finalizer  *service.Finalizer
	closers    []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := infrastructure.NewLogger(cfg)
	a := &app{cfg: cfg, log: log}

	shutdownTracing, err := infrastructure.SetupTracing(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	})

	db, err := infrastructure.OpenDatabase(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	log.WithField("driver", cfg.DBDriver).Info("connected to database and migrated schema")
	a.feedback = infrastructure.NewGormFeedbackStore(db)
	a.interviews = infrastructure.NewGormInterviewStore(db)

	if cfg.RedisURL != "" {
		cache, err := infrastructure.NewRedisStatusCache(ctx, cfg.RedisURL, cfg.CacheTTL, log)
		if err != nil {
			a.close()
			return nil, err
		}
		a.cache = cache
		a.closers = append(a.closers, func() { _ = cache.Close() })
	}

	if err := a.buildLLM(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.finalizer = service.NewFinalizer(a.feedback, service.NewLLMScorer(a.llm), cfg.ScoringTimeout, log)
	return a, nil
}

func (a *app) buildLLM(ctx context.Context) error {
	switch a.cfg.Scorer {
	case "gemini":
		llm, err := infrastructure.NewGeminiLLM(a.cfg.GeminiAPIKey, a.cfg.GeminiModels, a.log)
		if err != nil {
			return err
		}
		a.llm = llm
	case "vertex":
		llm, err := infrastructure.NewVertexLLM(ctx, a.cfg.VertexProject, a.cfg.VertexLocation, a.cfg.VertexModel)
		if err != nil {
			return err
		}
		a.llm = llm
		a.closers = append(a.closers, func() { _ = llm.Close() })
	case "openai":
		llm, err := infrastructure.NewOpenAILLM(a.cfg.OpenAIAPIKey, a.cfg.OpenAIModel, "")
		if err != nil {
			return err
		}
		a.llm = llm
	default:
		return fmt.Errorf("unsupported scorer %q", a.cfg.Scorer)
	}
	a.log.WithField("scorer", a.cfg.Scorer).Info("scoring backend ready")
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer a.close()
	log := a.log

	var dispatcher domain.Dispatcher
	switch a.cfg.DispatchMode {
	case "rabbitmq":
		rmq, err := infrastructure.NewRabbitMQ(a.cfg.RabbitMQURL, a.cfg.RabbitMQQueue, log)
		if err != nil {
			log.WithError(err).Error("rabbitmq unavailable")
			return err
		}
		defer rmq.Close()
		dispatcher = rmq
	default:
		inproc := infrastructure.NewInProcessDispatcher(a.finalizer.Run, a.cfg.WorkerConcurrency, log)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), a.cfg.ScoringTimeout+5*time.Second)
			defer cancel()
			if err := inproc.Shutdown(sctx); err != nil {
				log.WithError(err).Warn("in-flight feedback jobs abandoned at shutdown")
			}
		}()
		dispatcher = inproc
	}

	sweeper := infrastructure.NewStaleSweeper(a.feedback, a.cfg.StaleAfter, log)
	if err := sweeper.Start(a.cfg.SweeperSchedule); err != nil {
		return err
	}
	defer sweeper.Stop()

	handler := &interfaces.HTTPHandler{
		Jobs: service.NewJobManager(a.feedback, a.interviews, dispatcher, a.cache, log, service.JobManagerOptions{
			DeterministicIDs: a.cfg.DeterministicIDs,
		}),
		Status:     service.NewStatusReader(a.feedback, a.interviews, a.cache),
		Interviews: service.NewInterviewService(a.interviews, a.llm, log),
		Log:        log,
	}
	if a.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := interfaces.NewRouter(interfaces.RouterConfig{
		ServiceName: a.cfg.ServiceName,
		CORSOrigins: a.cfg.CORSOrigins,
	}, handler)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", a.cfg.HTTPAddr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("server failed")
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func worker(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer a.close()

	rmq, err := infrastructure.NewRabbitMQ(a.cfg.RabbitMQURL, a.cfg.RabbitMQQueue, a.log)
	if err != nil {
		a.log.WithError(err).Error("rabbitmq unavailable")
		return err
	}
	defer rmq.Close()

	a.log.WithField("concurrency", a.cfg.WorkerConcurrency).Info("feedback worker consuming")
	if err := rmq.Consume(ctx, a.cfg.WorkerConcurrency, a.finalizer.Run); err != nil {
		a.log.WithError(err).Error("feedback worker stopped")
		return err
	}
	a.log.Info("feedback worker stopped")
	return nil
}
