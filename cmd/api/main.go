package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"github.com/njprem/authcore-api/internal/config"
	"github.com/njprem/authcore-api/internal/logging"
	"github.com/njprem/authcore-api/internal/media"
	"github.com/njprem/authcore-api/internal/ratelimit"
	"github.com/njprem/authcore-api/internal/repository/bolt"
	storage "github.com/njprem/authcore-api/internal/repository/minio"
	"github.com/njprem/authcore-api/internal/repository/ports"
	"github.com/njprem/authcore-api/internal/repository/postgres"
	"github.com/njprem/authcore-api/internal/service"
	"github.com/njprem/authcore-api/internal/transport/mail"
	transport "github.com/njprem/authcore-api/internal/transport/http"
	"github.com/njprem/authcore-api/internal/util"
)

type repositories struct {
	users    ports.UserRepository
	resets   ports.PasswordResetRepository
	projects ports.ProjectRepository
	closer   io.Closer
}

func openRepositories(cfg config.Config) (*repositories, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverBolt:
		store, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:    bolt.NewUserRepo(store),
			resets:   bolt.NewPasswordResetRepo(store),
			projects: bolt.NewProjectRepo(store),
			closer:   store,
		}, nil
	default:
		db, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:    postgres.NewUserRepo(db),
			resets:   postgres.NewPasswordResetRepo(db),
			projects: postgres.NewProjectRepo(db),
			closer:   db,
		}, nil
	}
}

func newPhotoCache(ctx context.Context, cfg config.Config) *service.ProfilePhotoCache {
	if !cfg.PhotoStorageEnabled() {
		return nil
	}
	client, err := storage.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
	if err != nil {
		log.Printf("minio: photo caching disabled: %v", err)
		return nil
	}
	objects := storage.NewStorage(client, cfg.MinIOPublicURL)
	if err := objects.EnsureBucket(ctx, cfg.MinIOBucketProfile); err != nil {
		log.Printf("minio: photo caching disabled: %v", err)
		return nil
	}
	resizer := media.NewResizer(cfg.ProfilePhotoMaxDimension)
	return service.NewProfilePhotoCache(objects, resizer, cfg.MinIOBucketProfile, cfg.ProfilePhotoMaxDimension)
}

func main() {
	cfg := config.Load()

	logCloser := logging.Setup(cfg.LogstashTCPAddr)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(cfg)
	if err != nil {
		log.Fatalf("storage (%s): %v", cfg.StorageDriver, err)
	}
	defer repos.closer.Close()

	limiter := ratelimit.New()
	go limiter.Run(ctx, cfg.RateLimitSweepInterval)

	jwtManager := util.NewJWTManager(cfg.JWTSecret, util.SessionTTL)
	resets := service.NewPasswordResetService(repos.users, repos.resets, limiter, service.PasswordResetConfig{
		TTL:         cfg.PasswordResetTTL,
		MaxRequests: cfg.PasswordResetMaxRequests,
		Window:      cfg.PasswordResetWindow,
		LinkBaseURL: cfg.FrontendBaseURL,
	})

	var identities service.IdentityVerifier
	if cfg.GoogleAudience != "" {
		identities = service.NewGoogleVerifier(cfg.GoogleAudience)
	} else {
		log.Printf("auth: GOOGLE_AUDIENCE not set, federated login disabled")
	}

	var sender service.PasswordResetSender
	mailer := mail.NewPasswordResetMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	if mailer.Configured() {
		sender = mailer
	} else {
		log.Printf("mail: SMTP not configured; forgot-password requests are answered but every reset link is revoked undelivered")
	}

	authSvc := service.NewAuthService(repos.users, resets, jwtManager, identities, sender, newPhotoCache(ctx, cfg))
	projectSvc := service.NewProjectService(repos.projects)

	e := transport.NewRouter(transport.RouterConfig{AllowOrigins: cfg.AllowOrigins})
	transport.RegisterAuth(e, authSvc, transport.AuthRouteOptions{
		Limiter:  limiter,
		IPMax:    cfg.ResetIPMaxRequests,
		IPWindow: cfg.ResetIPWindow,
	})
	transport.RegisterProjects(e, authSvc, projectSvc)
	transport.RegisterSwagger(e)

	go func() {
		log.Printf("http: listening on :%s (storage=%s)", cfg.Port, cfg.StorageDriver)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http: server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdown(e, cfg)
}

func shutdown(e *echo.Echo, cfg config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("http: shutdown: %v", err)
	}
	log.Printf("http: stopped")
}
