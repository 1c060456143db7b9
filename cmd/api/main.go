package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"articlehub/db"
	"articlehub/internal/config"
	"articlehub/internal/handler"
	"articlehub/internal/logger"
	"articlehub/internal/metrics"
	"articlehub/internal/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	logger.Setup(os.Stdout, cfg.LogLevel)

	postgres, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer postgres.Close()

	articleRepo := repository.NewArticleRepository(postgres)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	prepareDatabase(ctx, postgres, articleRepo)
	cancel()

	m := metrics.New(prometheus.DefaultRegisterer)
	articleHandler := handler.NewArticleHandler(articleRepo, postgres).WithMetrics(m)

	if cfg.RedisURL != "" {
		queue, err := db.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			slog.Error("error connecting to Redis, article events disabled", "error", err)
		} else {
			defer queue.Close()
			articleHandler.WithEvents(queue)
		}
	}

	r := gin.Default()
	r.Use(m.Middleware())

	allowedOrigins := []string{"http://localhost:3000"}

	if cfg.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.FrontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/", articleHandler.GetIndex)
	r.GET("/health", articleHandler.GetHealth)
	r.GET("/articles", articleHandler.GetArticles)
	r.POST("/articles", articleHandler.CreateArticle)
	r.GET("/articles/:id", articleHandler.GetArticle)
	r.PUT("/articles/:id", articleHandler.UpdateArticle)
	r.DELETE("/articles/:id", articleHandler.DeleteArticle)
	r.GET("/lookup", articleHandler.LookupArticle)
	r.GET("/schema", articleHandler.GetSchema)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("starting server", "port", cfg.HTTPPort)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

// prepareDatabase creates the articles table when it is missing. A
// database that cannot be reached is logged and left for /health to report.
func prepareDatabase(ctx context.Context, postgres *db.Postgres, repo *repository.ArticleRepository) {
	if !postgres.TestConnection(ctx) {
		slog.Error("database connection failed, check DB_* settings")
		return
	}
	slog.Info("database connection successful")

	exists, err := repo.TableExists(ctx)
	if err != nil {
		slog.Error("error checking articles table", "error", err)
		return
	}

	if exists {
		slog.Info("articles table exists")
		return
	}

	slog.Info("creating articles table")
	if err := repo.EnsureTable(ctx); err != nil {
		slog.Error("error creating articles table", "error", err)
	}
}
