package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/cors"

	"learnhub/pkg/analytics"
	"learnhub/pkg/assessments"
	"learnhub/pkg/courses"
	"learnhub/pkg/enrollments"
	"learnhub/pkg/initial"
	"learnhub/pkg/kfka"
	"learnhub/pkg/routes"
)

func main() {
	logger := log.New(os.Stdout, "learnhub ", log.LstdFlags)
	initial.LoadEnv(logger)
	cfg, err := initial.Load()
	if err != nil {
		logger.Fatal("config: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := initial.OpenStore(cfg)
	if err != nil {
		logger.Fatal("storage: ", err)
	}
	defer closeStore()

	cache, closeCache := initial.NewCache(cfg, logger)
	defer closeCache()

	events, closeEvents := initial.NewPublisher(cfg, logger)
	defer closeEvents()

	index, err := initial.NewIndexer(cfg)
	if err != nil {
		logger.Fatal("search: ", err)
	}
	if err := initial.ReindexCourses(ctx, store, index); err != nil {
		logger.Println("search reindex failed, search results may be stale:", err)
	}

	media, err := initial.NewMediaStore(ctx, cfg)
	if err != nil {
		logger.Fatal("media: ", err)
	}

	courseSvc := courses.NewService(courses.Deps{
		Store:    store,
		Cache:    cache,
		Index:    index,
		Events:   events,
		Media:    media,
		Log:      logger,
		CacheTTL: cfg.CacheTTL,
	})
	router := routes.New(routes.Handlers{
		Courses:     courses.NewHandler(courseSvc, logger),
		Enrollments: enrollments.NewHandler(enrollments.NewService(store, cache, events, logger), logger),
		Assessments: assessments.NewHandler(assessments.NewService(store, events, logger), logger),
		Analytics:   analytics.NewHandler(analytics.NewService(store), logger),
	}, []byte(cfg.Secret), logger)

	if cfg.KafkaAddress != "" {
		go func() {
			err := kfka.Listen(ctx, cfg.KafkaAddress, "learnhub-activity", kfka.AllTopics(), logger, kfka.ActivityLog(logger))
			if err != nil {
				logger.Println("activity consumer stopped:", err)
			}
		}()
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("listening on :%s (storage=%s)", cfg.Port, cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server: ", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Println("shutdown:", err)
	}
}
