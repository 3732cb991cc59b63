package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/janisto/profile-directory/internal/http/health"
	"github.com/janisto/profile-directory/internal/platform/config"
	"github.com/janisto/profile-directory/internal/platform/firebase"
	applog "github.com/janisto/profile-directory/internal/platform/logging"
	"github.com/janisto/profile-directory/internal/platform/postgres"
	"github.com/janisto/profile-directory/internal/service/directory"
	"github.com/janisto/profile-directory/internal/service/geocode"
	"github.com/janisto/profile-directory/internal/service/photo"
	profilesvc "github.com/janisto/profile-directory/internal/service/profile"
)

// app holds the wired backends the router serves.
type app struct {
	pipeline *directory.Pipeline
	query    *directory.Query
	photos   *photo.Service
	// uploadDir is set when photos are stored on local disk and served by
	// this process.
	uploadDir     string
	publicBaseURL string
	checks        map[string]health.Check
	closers       []func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{
		publicBaseURL: cfg.Photo.PublicBaseURL,
		checks:        make(map[string]health.Check),
	}
	if err := a.wire(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, cfg config.Config) error {
	store, err := a.openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	storage, err := a.openPhotoStorage(ctx, cfg.Photo)
	if err != nil {
		return err
	}
	a.photos = photo.NewService(storage, cfg.Photo.MaxUploadBytes)

	a.pipeline = directory.NewPipeline(store, a.newGeocoder(cfg), a.photos,
		directory.WithGeocodeTimeout(cfg.Geocoder.Timeout),
		directory.WithPhotoTimeout(cfg.Photo.Timeout),
	)
	a.query = directory.NewQuery(store)
	return nil
}

func (a *app) openStore(ctx context.Context, cfg config.StoreConfig) (profilesvc.Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		applog.LogWarn(ctx, "using in-memory profile store; data is lost on restart")
		return profilesvc.NewMemoryStore(), nil
	case config.StoreFirestore:
		clients, err := firebase.InitializeClients(ctx, firebase.Config{
			ProjectID:                    cfg.FirebaseProjectID,
			GoogleApplicationCredentials: cfg.GoogleApplicationCredentials,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, clients.Close)
		return profilesvc.NewFirestoreStore(clients.Firestore), nil
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.checks["postgres"] = db.PingContext
		return profilesvc.NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func (a *app) openPhotoStorage(ctx context.Context, cfg config.PhotoConfig) (photo.Storage, error) {
	switch cfg.Backend {
	case config.PhotoDisk:
		storage, err := photo.NewDiskStorage(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		a.uploadDir = storage.Dir()
		return storage, nil
	case config.PhotoS3:
		client, err := photo.NewS3Client(photo.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		storage := photo.NewS3Storage(client, cfg.S3.Bucket, cfg.S3.PublicURL)
		if err := storage.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		applog.LogInfo(ctx, "photo bucket ready", zap.String("bucket", cfg.S3.Bucket))
		a.checks["s3"] = func(ctx context.Context) error {
			_, err := client.BucketExists(ctx, cfg.S3.Bucket)
			return err
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown photo backend %q", cfg.Backend)
	}
}

func (a *app) newGeocoder(cfg config.Config) geocode.Resolver {
	var resolver geocode.Resolver = geocode.NewClient(
		&http.Client{Timeout: cfg.Geocoder.Timeout},
		geocode.WithBaseURL(cfg.Geocoder.BaseURL),
		geocode.WithUserAgent(cfg.Geocoder.UserAgent),
		geocode.WithEmail(cfg.Geocoder.Email),
		geocode.WithRateLimit(cfg.Geocoder.RatePerSec),
	)
	if cfg.Redis.Addr == "" {
		return resolver
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, rdb.Close)
	a.checks["redis"] = func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
	return geocode.NewCachedResolver(resolver, rdb, cfg.Geocoder.CacheTTL)
}

// Close releases backend connections in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
