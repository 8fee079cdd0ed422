package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/prompthub/internal/ab"
	"github.com/nikhilbhutani/prompthub/internal/api/handlers"
	"github.com/nikhilbhutani/prompthub/internal/api/middleware"
	"github.com/nikhilbhutani/prompthub/internal/auth"
	"github.com/nikhilbhutani/prompthub/internal/cache"
	"github.com/nikhilbhutani/prompthub/internal/config"
	"github.com/nikhilbhutani/prompthub/internal/prompt"
	"github.com/nikhilbhutani/prompthub/internal/testcase"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	jwt   *auth.JWTMiddleware
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Initialize services
	var promptCache prompt.Cache
	if rt.redis != nil {
		promptCache = cache.NewPromptCache(rt.redis, 5*time.Minute)
	}
	promptSvc := prompt.NewService(prompt.NewPGStore(rt.db), promptCache)
	abSvc := ab.NewService(ab.NewPGStore(rt.db))
	testSvc := testcase.NewService(testcase.NewPGStore(rt.db), promptSvc)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		promptH := handlers.NewPromptHandler(promptSvc)
		testH := handlers.NewTestCaseHandler(testSvc)
		r.Route("/prompts", func(r chi.Router) {
			r.Post("/", promptH.Create)
			r.Get("/", promptH.List)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", promptH.Get)
				r.Put("/", promptH.Update)
				r.Delete("/", promptH.Delete)
				r.Get("/versions", promptH.ListVersions)
				r.Get("/versions/{version}", promptH.GetVersion)
				r.Post("/rollback/{version}", promptH.Rollback)
				r.Get("/diff", promptH.Diff)
				r.Post("/render", promptH.Render)
				r.Post("/visibility", promptH.SetVisibility)
				r.Post("/clone", promptH.Clone)

				r.Route("/tests", func(r chi.Router) {
					r.Get("/", testH.List)
					r.Post("/", testH.Create)
					r.Put("/{id}", testH.Update)
					r.Delete("/{id}", testH.Delete)
				})
			})
		})

		abH := handlers.NewABHandler(abSvc)
		r.Route("/ab", func(r chi.Router) {
			r.Post("/policy", abH.SetPolicy)
			r.Get("/policies", abH.ListPolicies)
			r.Get("/policy/{prompt_name}", abH.GetPolicy)
			r.Delete("/policy/{id}", abH.DeletePolicy)
			r.Post("/assign", abH.Assign)
			r.Get("/experiments/{name}/stats", abH.Stats)
		})
	})

	return r
}
