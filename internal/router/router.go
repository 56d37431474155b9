package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	mem "shelter-partner/internal/adapters/storage/memory"
	_ "shelter-partner/internal/docs"
	"shelter-partner/internal/domain/animals"
	"shelter-partner/internal/domain/societies"
	"shelter-partner/internal/middleware"
	"shelter-partner/internal/platform/logger"
	"shelter-partner/internal/ports/auth"
	"shelter-partner/internal/ports/docstore"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si no viene, in-memory.
	Store docstore.Store

	// nil => animals.DefaultMinimumDuration. Un 0 explícito registra todas las visitas.
	MinimumDuration *time.Duration
	Logger          logger.Logger
	Notifier        animals.Notifier // nil => sin notificaciones

	// Extra para el tracker (clock en tests, etc.)
	TrackerOptions []animals.Option

	ServiceName string
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))
	r.Use(middleware.RequestLog(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	store := opts.Store
	if store == nil {
		store = mem.NewDocStore()
	}

	trackerOpts := []animals.Option{animals.WithLogger(log.With(map[string]any{"component": "animals"}))}
	if opts.Notifier != nil {
		trackerOpts = append(trackerOpts, animals.WithNotifier(opts.Notifier))
	}
	if opts.MinimumDuration != nil {
		trackerOpts = append(trackerOpts, animals.WithMinimumDuration(*opts.MinimumDuration))
	}
	trackerOpts = append(trackerOpts, opts.TrackerOptions...)

	// Services por módulo
	societiesSvc := societies.NewService(store, log.With(map[string]any{"component": "societies"}))
	tracker := animals.NewTracker(store, animals.DefaultConfig(), trackerOpts...)

	// Rutas por módulo
	societies.RegisterRoutes(r, societiesSvc)
	animals.RegisterRoutes(r, tracker, societiesSvc)

	name := opts.ServiceName
	if name == "" {
		name = "shelter-partner"
	}
	return otelhttp.NewHandler(r, name)
}
