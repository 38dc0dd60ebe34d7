package main

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/icco/gobang"
	"github.com/icco/gobang/cmd/server/docs"
	"github.com/icco/gobang/store"
	"github.com/icco/gutil/logging"
	"github.com/jessevdk/go-flags"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/http-swagger"
	"github.com/unrolled/render"
	"github.com/unrolled/secure"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	// Renderer is a renderer for all occasions. These are our preferred default options.
	// See:
	//  - https://github.com/unrolled/render/blob/v1/README.md
	Renderer = render.New(render.Options{
		Charset:                   "UTF-8",
		DisableHTTPErrorRendering: false,
		IndentJSON:                false,
		Funcs:                     []template.FuncMap{},
	})

	log       = logging.Must(logging.NewLogger(gobang.Service))
	ugcPolicy = bluemonday.StrictPolicy()
)

// options are read from flags or the environment.
type options struct {
	Port         string        `long:"port" env:"PORT" default:"8080" description:"port to listen on"`
	DatabaseURL  string        `long:"database-url" env:"DATABASE_URL" default:"gobang.db" description:"postgres:// URL or sqlite file"`
	JWTSecret    string        `long:"jwt-secret" env:"AUTH_JWT_SECRET" required:"true" description:"HMAC secret bearer tokens are signed with"`
	Env          string        `long:"env" env:"NAT_ENV" default:"development" description:"production turns on SSL redirects"`
	RoomIdle     time.Duration `long:"room-idle" env:"ROOM_IDLE_TIMEOUT" default:"5m" description:"waiting rooms idle this long are closed"`
	CleanEvery   time.Duration `long:"clean-interval" env:"ROOM_CLEAN_INTERVAL" default:"1m" description:"how often stale rooms are looked for"`
	MaxAttempts  int           `long:"max-attempts" env:"STORE_MAX_ATTEMPTS" default:"3" description:"optimistic retries per write"`
	SlowQuery    time.Duration `long:"slow-query" env:"SLOW_QUERY_THRESHOLD" default:"200ms" description:"queries slower than this are logged"`
	PublicDocURL string        `long:"doc-url" env:"SWAGGER_DOC_URL" default:"/swagger/doc.json" description:"where the swagger UI loads the API document from"`
}

// server holds what handlers need.
type server struct {
	store  *store.Store
	secret []byte
	docURL string
	isDev  bool
}

// @title Gobang API
// @version 1.0
// @description Storage service for a gobang platform: users, AI models, training data, games and online rooms.
// @contact.name API Support
// @contact.url http://github.com/icco/gobang
// @license.name MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token in format: Bearer {token}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	log.Infow("Starting up", "port", opts.Port, "env", opts.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mp, err := setupMetrics()
	if err != nil {
		log.Fatalw("could not set up metrics", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Errorw("metrics shutdown", zap.Error(err))
		}
	}()

	st, err := store.Open(opts.DatabaseURL, store.Config{
		MaxAttempts:   opts.MaxAttempts,
		SlowThreshold: opts.SlowQuery,
	}, log)
	if err != nil {
		log.Fatalw("could not open database", zap.Error(err))
	}
	defer st.Close()

	s := &server{
		store:  st,
		secret: []byte(opts.JWTSecret),
		docURL: opts.PublicDocURL,
		isDev:  opts.Env != "production",
	}

	go s.cleanRooms(ctx, opts.CleanEvery, opts.RoomIdle)

	srv := &http.Server{
		Addr:           ":" + opts.Port,
		Handler:        s.router(),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorw("shutdown", zap.Error(err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalw("server stopped", zap.Error(err))
	}
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(logging.Middleware(log.Desugar()))
	r.Use(otelhttp.NewMiddleware(gobang.Service))

	r.Use(cors.New(cors.Options{
		AllowCredentials:   true,
		OptionsPassthrough: true,
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:     []string{"Link", "Retry-After"},
		MaxAge:             300, // Maximum value not ignored by any of major browsers
	}).Handler)

	r.NotFound(notFoundHandler)

	// Probes are never redirected to SSL.
	r.Get("/healthz", s.healthCheckHandler)
	r.Mount("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(secure.New(secure.Options{
			BrowserXssFilter:     true,
			ContentTypeNosniff:   true,
			FrameDeny:            true,
			HostsProxyHeaders:    []string{"X-Forwarded-Host"},
			IsDevelopment:        s.isDev,
			SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
			SSLRedirect:          !s.isDev,
			STSIncludeSubdomains: true,
			STSPreload:           true,
			STSSeconds:           315360000,
		}).Handler)

		// Public routes
		r.Get("/", rootHandler)
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL(s.docURL),
		))

		r.Post("/users", s.createUserHandler)
		r.Get("/users", s.listUsersHandler)
		r.Get("/users/{id}", s.getUserHandler)
		r.Get("/games/{id}", s.getGameHandler)
		r.Get("/rooms", s.listRoomsHandler)
		r.Get("/rooms/{id}", s.getRoomHandler)
		r.Get("/rooms/code/{code}", s.getRoomByCodeHandler)

		// Protected routes requiring authentication
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/users/me", s.meHandler)
			r.Patch("/users/me", s.updateMeHandler)
			r.Delete("/users/me", s.deleteMeHandler)

			r.Post("/models", s.createModelHandler)
			r.Get("/models", s.listModelsHandler)
			r.Get("/models/default", s.defaultModelHandler)
			r.Get("/models/{id}", s.getModelHandler)
			r.Patch("/models/{id}", s.updateModelHandler)
			r.Delete("/models/{id}", s.deleteModelHandler)
			r.Post("/models/{id}/default", s.setDefaultModelHandler)

			r.Post("/training", s.createTrainingHandler)
			r.Get("/training", s.listTrainingHandler)
			r.Delete("/training", s.clearTrainingHandler)
			r.Get("/training/{id}", s.getTrainingHandler)
			r.Patch("/training/{id}", s.updateTrainingHandler)

			r.Post("/games", s.createGameHandler)
			r.Get("/games", s.listGamesHandler)
			r.Patch("/games/{id}", s.updateGameHandler)
			r.Post("/games/{id}/moves", s.gameMoveHandler)
			r.Post("/games/{id}/result", s.gameResultHandler)

			r.Post("/rooms", s.createRoomHandler)
			r.Patch("/rooms/{id}", s.updateRoomHandler)
			r.Post("/rooms/{id}/join", s.joinRoomHandler)
			r.Post("/rooms/{id}/moves", s.roomMoveHandler)
			r.Post("/rooms/{id}/finish", s.finishRoomHandler)
			r.Post("/rooms/{id}/close", s.closeRoomHandler)
		})
	})

	return r
}

// cleanRooms closes idle waiting rooms until ctx is done.
func (s *server) cleanRooms(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.store.CleanStaleRooms(ctx, idle); err != nil {
				log.Errorw("could not clean stale rooms", zap.Error(err))
			}
		}
	}
}

// @Summary Get API information
// @Description Returns basic API information and available endpoints
// @Tags info
// @Produce html
// @Success 200 {string} string "HTML page with API information"
// @Router / [get]
func rootHandler(w http.ResponseWriter, r *http.Request) {
	spec, err := docs.GetSwaggerSpec()
	if err != nil {
		log.Errorw("failed to parse swagger.json", zap.Error(err))
		spec = &docs.SwaggerSpec{}
	}

	paths := make([]string, 0, len(spec.Paths))
	for p := range spec.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	html := `
<html>
  <head>
    <title>Gobang API</title>
    <style>
      body { font-family: Arial, sans-serif; max-width: 800px; margin: 40px auto; padding: 20px; }
      .endpoint { margin: 12px 0; padding: 10px; border-left: 4px solid #333; background: #f8f9fa; }
      .method { font-weight: bold; text-transform: uppercase; }
      .path { font-family: monospace; }
    </style>
  </head>
  <body>
    <h1>Gobang API</h1>
    <p><a href="/swagger/">Swagger documentation</a></p>`

	for _, path := range paths {
		methods := spec.Paths[path]
		names := make([]string, 0, len(methods))
		for m := range methods {
			names = append(names, m)
		}
		sort.Strings(names)

		for _, method := range names {
			html += fmt.Sprintf(`
    <div class="endpoint"><span class="method">%s</span> <span class="path">%s</span> %s</div>`,
				method, template.HTMLEscapeString(path), template.HTMLEscapeString(methods[method].Summary))
		}
	}

	html += `
  </body>
</html>`

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(html)); err != nil {
		log.Errorw("failed to write response", zap.Error(err))
	}
}

// @Summary Health check
// @Description Returns service health status
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} ErrorResponse
// @Router /healthz [get]
func (s *server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		log.Errorw("database ping failed", zap.Error(err))
		renderJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "database unavailable"})
		return
	}

	renderJSON(w, http.StatusOK, HealthResponse{
		Healthy:  "true",
		Revision: os.Getenv("GIT_REVISION"),
		Tag:      os.Getenv("GIT_TAG"),
		Branch:   os.Getenv("GIT_BRANCH"),
	})
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusNotFound, ErrorResponse{
		Error: "404: This page could not be found",
	})
}
