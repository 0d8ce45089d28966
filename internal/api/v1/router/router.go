package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"coursehub/internal/api/v1/handler"
	"coursehub/internal/config"
	"coursehub/internal/deletion"
	"coursehub/internal/middleware"
	"coursehub/internal/pubsub"
	"coursehub/internal/repository"
	"coursehub/internal/service"
	"coursehub/internal/storage"
	"coursehub/internal/util"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

const (
	lessonFilePrefix   = "lessons"
	workflowFilePrefix = "workflows"
)

// New wires the API and returns its handler together with a function that
// releases the database pool and the publisher. ctx only bounds startup and
// may be cancelled once New returns.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	// 1. Database
	pool, err := repository.NewPool(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	// 2. Object storage
	s3Client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	store := storage.NewS3Store(s3Client, cfg.S3Bucket, cfg.PresignExpiry(), logger)

	// 3. Validator and audit publisher
	validate := util.NewValidator()
	publisher, err := pubsub.New(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("creating Pub/Sub publisher: %w", err)
	}

	// 4. Repositories, services, handlers
	userRepo := repository.NewUserRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	moduleRepo := repository.NewModuleRepo(pool)
	lessonRepo := repository.NewLessonRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	orgRepo := repository.NewOrganizationRepo(pool)
	enrollmentRepo := repository.NewEnrollmentRepo(pool)
	workflowRepo := repository.NewWorkflowRepo(pool)
	deletionRepo := repository.NewDeletionRepo(pool)
	auditRepo := repository.NewAuditRepo(pool)
	statsRepo := repository.NewStatsRepo(pool)
	dlqRepo := repository.NewDLQRepository(pool)

	lessonFiles := service.NewFileService(repository.NewLessonFileRepo(pool), store, lessonFilePrefix, logger)
	workflowFiles := service.NewFileService(repository.NewWorkflowFileRepo(pool), store, workflowFilePrefix, logger)

	policy := deletion.Policy{
		CriticalUserThreshold:       cfg.DeletionCriticalUserThreshold,
		CriticalEnrollmentThreshold: cfg.DeletionCriticalEnrollmentThreshold,
	}

	userSvc := service.NewUserService(userRepo, courseRepo, progressRepo, orgRepo, logger)
	courseSvc := service.NewCourseService(courseRepo, moduleRepo, lessonRepo, progressRepo, lessonFiles, logger)
	progressSvc := service.NewProgressService(progressRepo, courseSvc)
	orgSvc := service.NewOrganizationService(orgRepo, enrollmentRepo, courseRepo, userRepo, logger)
	workflowSvc := service.NewWorkflowService(workflowRepo, workflowFiles, logger)
	deletionSvc := service.NewDeletionService(deletionRepo, auditRepo, policy, publisher, cfg.PubSubAuditTopic, cfg.CleanupQueueName, logger)
	statsSvc := service.NewStatsService(statsRepo)
	dlqSvc := service.NewDLQService(dlqRepo)

	userHandler := handler.NewUserHandler(userSvc, statsSvc, validate, logger)
	courseHandler := handler.NewCourseHandler(courseSvc, progressSvc, validate, logger)
	orgHandler := handler.NewOrganizationHandler(orgSvc, validate, logger)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc, validate, logger)
	deletionHandler := handler.NewDeletionHandler(deletionSvc, logger)
	dlqHandler := handler.NewDLQHandler(dlqSvc, logger)

	// 5. Middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)
	profileMiddleware := middleware.ProfileMiddleware(userRepo, logger)
	isLocalDev := cfg.PubSubEmulatorHost != ""
	dlqPushAuth := middleware.PushAuth(isLocalDev, cfg.DLQEndpointURL, cfg.PubSubPushServiceAccountEmail, logger)

	// 6. Huma API mounted under /v1
	apiRouter, api := SetupHumaAPI(cfg, authMiddleware, profileMiddleware, dlqPushAuth, logger)
	RegisterRoutes(api, userHandler, courseHandler, orgHandler, workflowHandler, deletionHandler, dlqHandler, logger)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiRouter))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	// Redirect /api/* to /v1/* for backward compatibility
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/")
		http.Redirect(w, r, "/v1/"+rest, http.StatusMovedPermanently)
	})

	// 7. CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close publisher")
		}
		pool.Close()
	}
	logger.Info().Msg("Router initialized")
	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), cleanup, nil
}
