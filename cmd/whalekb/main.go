package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/whalekb/whalekb/internal/config"
	"github.com/whalekb/whalekb/internal/db"
	"github.com/whalekb/whalekb/internal/embed"
	"github.com/whalekb/whalekb/internal/filestore"
	"github.com/whalekb/whalekb/internal/handler"
	"github.com/whalekb/whalekb/internal/job"
	"github.com/whalekb/whalekb/internal/middleware"
	"github.com/whalekb/whalekb/internal/repo"
	"github.com/whalekb/whalekb/internal/schedule"
	"github.com/whalekb/whalekb/internal/service"
	"github.com/whalekb/whalekb/internal/vecindex"

	"github.com/whalekb/whalekb/internal/chunker"
	"github.com/whalekb/whalekb/internal/pkg/apikey"
	"github.com/whalekb/whalekb/internal/pkg/jwt"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "whalekb",
		Short: "whalekb knowledge base server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run whalekb server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	var tokenSubject string
	var tokenKey string
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "issue a service token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.APIKeyHash == "" {
				return fmt.Errorf("api_key_hash is not configured")
			}
			if err := apikey.Compare(cfg.APIKeyHash, tokenKey); err != nil {
				return fmt.Errorf("api key rejected")
			}
			token, err := jwt.GenerateToken(tokenSubject, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "token subject name")
	tokenCmd.Flags().StringVar(&tokenKey, "api-key", "", "deployment api key")

	var hashKey string
	hashCmd := &cobra.Command{
		Use:   "hash-key",
		Short: "hash an api key for the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hashKey == "" {
				return fmt.Errorf("--api-key is required")
			}
			hashed, err := apikey.Hash(hashKey)
			if err != nil {
				return err
			}
			fmt.Println(hashed)
			return nil
		},
	}
	hashCmd.Flags().StringVar(&hashKey, "api-key", "", "plain api key to hash")

	rootCmd.AddCommand(runCmd, tokenCmd, hashCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
	return cfg, nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	ctx := context.Background()
	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("vector_backend", cfg.VectorIndex.Backend),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("file_store", cfg.FileStore.Type),
	)

	docRepo := repo.NewDocumentRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	evalRepo := repo.NewEvaluationRepo(conn)
	feedbackRepo := repo.NewFeedbackRepo(conn)
	cacheRepo := repo.NewEmbeddingCacheRepo(conn)

	provider, err := embed.NewProvider(cfg.Embedding.Provider, cfg.Embedding.Data)
	if err != nil {
		return fmt.Errorf("init embedding provider: %w", err)
	}
	encoder := embed.NewEncoder(provider, cfg.Embedding.Model, cfg.Embedding.Dimension, cfg.Embedding.BatchSize)
	encoder = embed.WithDBCache(encoder, cacheRepo)
	encoder = embed.WithCache(encoder, cfg.Embedding.CacheSize, time.Duration(cfg.Embedding.CacheTTLMinutes)*time.Minute)

	index, err := buildIndex(ctx, cfg, conn)
	if err != nil {
		return fmt.Errorf("init vector index: %w", err)
	}

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	chunkOpts := chunker.Options{
		Strategy: chunker.Strategy(cfg.Chunking.Strategy),
		Size:     cfg.Chunking.Size,
		Overlap:  cfg.Chunking.Overlap,
	}
	ingestService := service.NewIngestService(docRepo, chunkRepo, index, encoder, chunkOpts)
	documentService := service.NewDocumentService(docRepo, chunkRepo, ingestService, store)
	retrievalService := service.NewRetrievalService(encoder, index, chunkRepo)
	evaluationService := service.NewEvaluationService(evalRepo, feedbackRepo, retrievalService)
	statsService := service.NewStatsService(docRepo, chunkRepo, evalRepo, encoder, chunkOpts)

	deps := handler.RouterDeps{
		Documents:       handler.NewDocumentHandler(documentService),
		Query:           handler.NewQueryHandler(retrievalService),
		Evaluation:      handler.NewEvaluationHandler(evaluationService),
		Stats:           handler.NewStatsHandler(statsService),
		JWTSecret:       []byte(cfg.JWTSecret),
		IngestRateLimit: time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewIndexSweepJob(index, chunkRepo), cfg.Jobs.IndexSweepSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Jobs.CacheMaxAgeDays), cfg.Jobs.CacheCleanupSpec); err != nil {
		return err
	}
	scheduler.Start(runCtx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(ctx).Error("server error", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	logutil.GetLogger(ctx).Info("server stopping...")
	return nil
}

func buildIndex(ctx context.Context, cfg *config.Config, conn *sql.DB) (vecindex.Index, error) {
	switch cfg.VectorIndex.Backend {
	case "pgvector":
		return vecindex.NewPGVectorIndex(conn), nil
	case "memory":
		return vecindex.NewMemoryIndex(), nil
	case "qdrant":
		var qcfg vecindex.QdrantConfig
		data, err := json.Marshal(cfg.VectorIndex.Data)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &qcfg); err != nil {
			return nil, err
		}
		index := vecindex.NewQdrantIndex(qcfg)
		if err := index.Init(ctx, cfg.Embedding.Dimension); err != nil {
			return nil, fmt.Errorf("init qdrant collection: %w", err)
		}
		return index, nil
	default:
		return nil, fmt.Errorf("unsupported vector index backend: %s", cfg.VectorIndex.Backend)
	}
}
