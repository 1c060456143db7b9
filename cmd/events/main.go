package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"articlehub/db"
	"articlehub/internal/config"
	"articlehub/internal/events"
	"articlehub/internal/logger"
	"articlehub/internal/model"
	"articlehub/internal/repository"

	"github.com/redis/go-redis/v9"
)

const popTimeout = 5 * time.Second

type articleReader interface {
	GetByID(ctx context.Context, id int64) (*model.Article, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	logger.Setup(os.Stdout, cfg.LogLevel)

	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required to consume article events")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := db.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer queue.Close()

	postgres, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer postgres.Close()

	articleRepository := repository.NewArticleRepository(postgres)

	for {
		data, err := queue.Pop(ctx, db.ArticleEventsKey, popTimeout)
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("error popping from Redis queue", "error", err)
			}
			break
		}

		handleEvent(ctx, articleRepository, data)
	}
}

// handleEvent logs one queued article event. Saved articles are re-read so
// the log carries the stored title and link.
func handleEvent(ctx context.Context, articles articleReader, data string) {
	event, err := events.Parse(data)
	if err != nil {
		slog.Error("invalid article event in queue", "data", data, "error", err)
		return
	}

	if event.Op == events.OpDeleted {
		slog.Info("article deleted", "article_id", event.ArticleID)
		return
	}

	article, err := articles.GetByID(ctx, event.ArticleID)
	if errors.Is(err, repository.ErrNotFound) {
		slog.Warn("saved article no longer exists", "article_id", event.ArticleID)
		return
	}
	if err != nil {
		slog.Error("error getting article from DB", "error", err, "article_id", event.ArticleID)
		return
	}

	slog.Info("article saved",
		"article_id", article.ID,
		"title", article.Title,
		"direct_link", article.DirectLink,
		"updated_at", article.UpdatedAt,
	)
}
