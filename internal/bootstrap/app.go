// Package bootstrap wires configuration, storage and services into a
// runnable application.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"filevault-backend/internal/audit"
	"filevault-backend/internal/files"
	"filevault-backend/internal/quota"
	"filevault-backend/internal/shared/config"
	"filevault-backend/internal/shared/server"
	"filevault-backend/internal/shared/storage/db"
	"filevault-backend/internal/shared/storage/object"
	localstore "filevault-backend/internal/shared/storage/object/local"
	s3store "filevault-backend/internal/shared/storage/object/s3"
	"filevault-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	FilesRepo    files.Repo
	UsersRepo    users.Repo
	QuotaStore   quota.Store
	AuditSink    audit.Recorder
	FilesService *files.Service
	QuotaService *quota.Service
	UsersService *users.Service
	FilesHandler *files.Handler
	UsersHandler *users.Handler
}

// Build prepares shared dependencies and assembles the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       app.Config,
		FilesHandler: app.FilesHandler,
		UsersHandler: app.UsersHandler,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			_ = sqlDB.Close()
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID, cfg.StoreOpTimeout)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(ctx context.Context, app *App) error {
	var filesRepo files.Repo
	var usersRepo users.Repo
	var quotaStore quota.Store
	var auditSink audit.Recorder

	if app.DB != nil {
		filesRepo = &files.PGRepo{DB: app.DB}
		usersRepo = &users.PGRepo{DB: app.DB}
		quotaStore = quota.NewPGStore(app.DB)
		auditSink = &audit.PGRecorder{DB: app.DB}
	} else {
		filesRepo = files.NewMemoryRepo()
		usersRepo = users.NewMemoryRepo()
		quotaStore = quota.NewMemoryStore()
		auditSink = audit.NewMemoryRecorder()
	}

	quotaSvc := quota.NewService(quotaStore)
	usersSvc := users.NewService(usersRepo)

	if err := usersSvc.EnsureAdmin(ctx, app.Config.AdminUsername); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	// The memory quota store does not share state with the users repo, so
	// the seeded admin's unlimited status is mirrored explicitly.
	if mem, ok := quotaStore.(*quota.MemoryStore); ok && strings.TrimSpace(app.Config.AdminUsername) != "" {
		if admin, err := usersRepo.GetByUsername(ctx, strings.TrimSpace(app.Config.AdminUsername)); err == nil {
			mem.Seed(admin.ID, quota.StatusUnlimited)
		}
	}

	filesSvc := &files.Service{
		Store:        app.Store,
		Repo:         filesRepo,
		Quota:        quotaSvc,
		Audit:        auditSink,
		MaxBatchSize: app.Config.MaxBatchSize,
	}

	app.FilesRepo = filesRepo
	app.UsersRepo = usersRepo
	app.QuotaStore = quotaStore
	app.AuditSink = auditSink
	app.QuotaService = quotaSvc
	app.UsersService = usersSvc
	app.FilesService = filesSvc
	app.FilesHandler = files.NewHandler(filesSvc, usersSvc)
	app.UsersHandler = users.NewHandler(usersSvc)
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
