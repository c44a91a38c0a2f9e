package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/yangwenmai/storeforge/internal/blob"
	"github.com/yangwenmai/storeforge/internal/commerce"
	"github.com/yangwenmai/storeforge/internal/config"
	"github.com/yangwenmai/storeforge/internal/engine"
	"github.com/yangwenmai/storeforge/internal/imaging"
	"github.com/yangwenmai/storeforge/internal/metrics"
	"github.com/yangwenmai/storeforge/internal/publish"
	"github.com/yangwenmai/storeforge/internal/runlock"
	"github.com/yangwenmai/storeforge/internal/store"
)

// app is the wired dependency graph shared by all commands.
type app struct {
	cfg       config.Config
	db        *sql.DB
	store     *store.Store
	metrics   *metrics.Registry
	enhancer  *imaging.Enhancer
	pipeline  *engine.Pipeline
	publisher *publish.Publisher // nil when commerce credentials are missing
	lock      runlock.Locker
	redis     *redis.Client
	mediaDir  string
}

func openStore(c config.Config) (*sql.DB, *store.Store, error) {
	db, err := store.OpenSQLite(c.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	s, err := store.New(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init store: %w", err)
	}
	return db, s, nil
}

func newApp(ctx context.Context, c config.Config) (*app, error) {
	db, s, err := openStore(c)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: c, db: db, store: s, metrics: metrics.NewRegistry(), lock: runlock.Noop{}}

	hc := &http.Client{Timeout: c.HTTPTimeout}

	var extractor engine.ProductExtractor
	var mc engine.ModelClient
	if c.UseStubs() {
		slog.Info("no LLM key for provider, using stub pipeline", "provider", c.LLMProvider)
		extractor = &engine.StubExtractor{}
		mc = &engine.StubModelClient{}
	} else {
		extractor = engine.NewHTTPExtractor(engine.WithExtractorClient(hc))
		mc = newModelClient(c, hc)
	}
	synth := engine.NewSynthesizer(mc,
		engine.WithCallTimeout(c.ContentTimeout),
		engine.WithSynthesisRecorder(a.metrics),
	)

	uploader, err := a.newUploader(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	var jobs imaging.JobService
	if c.UseImageStub() {
		slog.Info("LEONARDO_API_KEY not set, images pass through unchanged")
		jobs = imaging.NewStubJobService()
	} else {
		jobs = imaging.NewLeonardoClient(c.LeonardoKey,
			imaging.WithLeonardoBaseURL(c.LeonardoBaseURL),
			imaging.WithLeonardoHTTPClient(hc),
			imaging.WithRateLimit(c.ImageRatePerSec, 2),
		)
	}
	opts := []imaging.EnhancerOption{
		imaging.WithPasses(imaging.Passes{
			Quality:          c.EnhanceQuality,
			RemoveBackground: c.EnhanceRemoveBackground,
			Style:            c.EnhanceStyle,
		}),
		imaging.WithPoller(imaging.Poller{Interval: c.ImagePollInterval, MaxAttempts: c.ImagePollAttempts}),
		imaging.WithImageRecorder(a.metrics),
	}
	if uploader != nil {
		opts = append(opts, imaging.WithUploader(uploader))
	}
	a.enhancer = imaging.NewEnhancer(jobs, blob.NewHTTPFetcher(hc), opts...)

	a.pipeline = engine.NewPipeline(s, extractor, synth, a.enhancer, engine.WithRecorder(a.metrics))

	if c.RedisURL != "" {
		rc, err := runlock.Dial(ctx, c.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, run lock disabled", "error", err)
		} else {
			a.redis = rc
			a.lock = runlock.NewRedis(rc, c.RunLockTTL)
		}
	}

	if c.PublishEnabled() {
		client := commerce.NewClient(c.ShopifyDomain, c.ShopifyToken,
			commerce.WithAPIVersion(c.ShopifyAPIVersion),
			commerce.WithHTTPClient(hc),
		)
		a.publisher = publish.New(s, client,
			publish.WithVendor(c.StoreVendor),
			publish.WithRecorder(a.metrics),
			publish.WithLocker(a.lock),
		)
	}

	return a, nil
}

// newUploader returns the S3 uploader when a bucket is set, otherwise a local
// file store served under /media.
func (a *app) newUploader(ctx context.Context) (imaging.Uploader, error) {
	c := a.cfg
	if c.S3Bucket != "" {
		awsCfg, err := blob.LoadAWSConfig(ctx, c.S3Region, c.S3AccessKey, c.S3SecretKey)
		if err != nil {
			return nil, err
		}
		slog.Info("storing enhanced images in S3", "bucket", c.S3Bucket)
		return blob.NewS3Uploader(awsCfg, c.S3Bucket, c.S3Endpoint, c.S3PublicBaseURL), nil
	}
	if c.StoragePath == "" {
		return nil, nil
	}
	fs, err := blob.NewFileStore(c.StoragePath, c.StorageBaseURL)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	a.mediaDir = fs.Root()
	return fs, nil
}

func newModelClient(c config.Config, hc *http.Client) engine.ModelClient {
	switch c.LLMProvider {
	case "claude":
		slog.Info("using Claude model client", "model", c.AnthropicModel)
		return engine.NewClaudeClient(c.AnthropicKey,
			engine.WithClaudeModel(c.AnthropicModel),
			engine.WithClaudeHTTPClient(hc),
		)
	case "gemini":
		slog.Info("using Gemini model client", "model", c.GeminiModel)
		return engine.NewGeminiClient(c.GeminiKey,
			engine.WithGeminiModel(c.GeminiModel),
			engine.WithGeminiHTTPClient(hc),
		)
	case "ollama":
		slog.Info("using Ollama model client", "model", c.OllamaModel)
		return engine.NewOllamaClient(c.OllamaURL,
			engine.WithOllamaModel(c.OllamaModel),
			engine.WithOllamaHTTPClient(hc),
		)
	default:
		slog.Info("using OpenAI model client", "model", c.OpenAIModel)
		return engine.NewOpenAIClient(c.OpenAIKey,
			engine.WithModel(c.OpenAIModel),
			engine.WithBaseURL(c.OpenAIBaseURL),
			engine.WithHTTPClient(hc),
		)
	}
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.db.Close()
}
