// Package server contains the HTTP handlers for the content planning API.
package server

import (
	"context"
	"log"
	"time"

	"feedbird/internal/backend"
	"feedbird/internal/cache"
	"feedbird/internal/config"
	"feedbird/internal/lifecycle"
	"feedbird/internal/media"
	"feedbird/internal/middleware"
	"feedbird/internal/notifications"
	"feedbird/internal/pipeline"
	"feedbird/internal/platforms"
	"feedbird/internal/store"
	"feedbird/internal/sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tree       *store.Tree
	backend    backend.Client
	svc        *sync.Service
	publisher  *pipeline.Publisher
	registry   *platforms.Registry
	notifier   *notifications.Notifier
	persister  *store.Persister
	reconciler *lifecycle.Reconciler
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize Redis
	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	client := backend.NewHTTPClient(cfg.BackendAPIURL, cfg.BackendAPIToken)

	// The object store is optional; without it posts publish with their
	// source media URLs untouched.
	var objStore media.ObjectStore
	if cfg.MinioEndpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := media.NewMinioStore(ctx, media.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			PublicURL: cfg.MinioPublicURL,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Printf("WARNING: object store unavailable, media stays on source URLs: %v", err)
		} else {
			objStore = s
		}
	}

	return NewServerWithDeps(cfg, redisClient, client, objStore)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes Redis and the
// backend client itself.
func NewServerWithDeps(cfg *config.Config, redisClient *redis.Client, client backend.Client, objStore media.ObjectStore) (*Server, error) {
	middleware.InitMiddleware(cfg)

	// Initialize Prometheus metrics
	prom := middleware.InitMetrics("feedbird-api")

	tree := store.NewTree()

	var notifier *notifications.Notifier
	if redisClient != nil {
		notifier = notifications.NewNotifier(redisClient)
	}

	svc := sync.NewService(tree, client, notifier)

	driver := platforms.NewGatewayDriver(cfg.SocialGatewayURL, cfg.SocialGatewayToken)
	registry := platforms.NewRegistry(platforms.DefaultAdapters(driver)...)

	var materializer *media.Materializer
	if objStore != nil {
		materializer = media.NewMaterializer(objStore)
	}

	shutdownCtx, shutdownFn := context.WithCancel(context.Background())

	server := &Server{
		config:         cfg,
		redis:          redisClient,
		promMiddleware: prom,
		shutdownCtx:    shutdownCtx,
		shutdownFn:     shutdownFn,
		tree:           tree,
		backend:        client,
		svc:            svc,
		publisher:      pipeline.NewPublisher(svc, registry, materializer),
		registry:       registry,
		notifier:       notifier,
		persister:      store.NewPersister(redisClient),
		reconciler:     lifecycle.NewReconciler(tree, cfg.ReconcileInterval()),
	}

	return server, nil
}

// Bootstrap hydrates the local tree and starts the background loops. The
// snapshot gives an immediately serving tree; the backend fetch that follows
// is authoritative and overwrites it.
func (s *Server) Bootstrap(ctx context.Context) error {
	loaded, err := s.persister.Load(ctx, s.tree)
	if err != nil {
		log.Printf("WARNING: snapshot load failed: %v", err)
	} else if loaded {
		log.Printf("Tree restored from snapshot")
	}

	if err := s.svc.Hydrate(ctx); err != nil {
		// A stale snapshot still serves reads; only fail hard when
		// there is nothing to serve at all.
		if !loaded {
			return err
		}
		log.Printf("WARNING: backend hydration failed, serving snapshot: %v", err)
	}

	s.reconciler.Start(s.shutdownCtx)
	s.persister.StartAutosave(s.shutdownCtx, s.tree, s.config.AutosaveInterval())
	return nil
}

// Shutdown stops background loops and saves a final snapshot.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()
	return s.persister.Save(ctx, s.tree)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	// Backwards-compatible legacy route: map /health to readiness (keeps existing scripts working)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Feedbird API Metrics Dashboard",
	}))

	// Everything past this point requires authentication
	protected := api.Group("", middleware.AuthRequired)

	// Re-hydrate the tree from the backend on demand
	protected.Post("/sync", s.SyncFromBackend)

	// Workspace routes
	workspaces := protected.Group("/workspaces")
	workspaces.Get("/", s.GetWorkspaces)
	workspaces.Get("/:id/activities", s.GetActivities)
	workspaces.Post("/:id/invites", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "workspace_invite"), s.InviteToWorkspace)
	workspaces.Get("/:id", s.GetWorkspace)

	// Board routes
	boards := protected.Group("/workspaces/:id/boards")
	boards.Put("/:boardId", s.UpdateBoard)
	boards.Post("/:boardId/invites", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "board_invite"), s.InviteToBoard)
	boards.Post("/:boardId/groups/:month/comments", s.AddGroupComment)
	boards.Post("/:boardId/groups/:month/comments/:commentId/resolve", s.ResolveGroupComment)

	// Channel routes
	channels := protected.Group("/workspaces/:id/channels")
	channels.Post("/:channelId/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "channel_message"), s.SendChannelMessage)

	// Post routes
	posts := protected.Group("/workspaces/:id/posts")
	posts.Post("/", s.CreatePost)
	posts.Post("/bulk", s.BulkCreatePosts)
	posts.Post("/bulk-delete", s.BulkDeletePosts)
	// Define specific /:postId/:resource routes BEFORE generic /:postId route
	posts.Post("/:postId/submit-for-approval", s.SubmitForApproval)
	posts.Post("/:postId/approve", s.ApprovePost)
	posts.Post("/:postId/request-changes", s.RequestChanges)
	posts.Post("/:postId/mark-revised", s.MarkRevised)
	posts.Post("/:postId/publish", middleware.RateLimit(
		s.redis, 10, time.Minute, "publish_post"), s.PublishPost)
	posts.Post("/:postId/comments", s.AddPostComment)
	posts.Post("/:postId/blocks/:blockId/comments", s.AddBlockComment)
	posts.Post("/:postId/blocks/:blockId/versions", s.AddVersion)
	posts.Post("/:postId/blocks/:blockId/versions/:versionId/comments", s.AddVersionComment)
	posts.Put("/:postId/blocks/:blockId/current-version", s.SetCurrentVersion)
	posts.Get("/:postId/activities", s.GetPostActivities)
	// Generic /:postId routes (for item detail, update, delete)
	posts.Get("/:postId", s.GetPost)
	posts.Put("/:postId", s.UpdatePost)
	posts.Delete("/:postId", s.DeletePost)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	// Redis only carries snapshots and rate limits; its absence degrades
	// the service but does not make it unready.
	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	treeStatus := "healthy"
	if len(s.tree.Workspaces()) == 0 {
		treeStatus = "empty"
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"version": "1.0.0",
		"status":  "healthy",
		"checks": fiber.Map{
			"redis": redisStatus,
			"tree":  treeStatus,
		},
		"time": time.Now(),
	})
}
