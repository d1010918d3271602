// Package web serves the sign-in pages, the auth routes and the health and metrics endpoints.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	fiberlog "github.com/authgate/authgate/internal/logger/adapter/fiber"
	"github.com/authgate/authgate/internal/metrics"
	"github.com/authgate/authgate/internal/web/handler"
	"github.com/authgate/authgate/internal/web/handler/api"
	"github.com/authgate/authgate/internal/web/handler/callback"
	"github.com/authgate/authgate/internal/web/handler/errorpage"
	"github.com/authgate/authgate/internal/web/handler/home"
	"github.com/authgate/authgate/internal/web/handler/signin"
	"github.com/authgate/authgate/internal/web/handler/signout"
	"github.com/authgate/authgate/internal/web/session"
)

const (
	// MetricsPath serves the prometheus metrics.
	MetricsPath = "/metrics"

	defaultCheckAlive = "/checkalive"
	csrfExpiration    = time.Hour
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether the service accepts traffic.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// CheckAlive answers the load balancer health check, 503 while draining.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// New creates the web service. storage keeps the csrf tokens, nil selects fiber's
// in-process memory storage. m and gatherer may be nil.
func New(
	cfg *config.Config,
	a *auth.Auth,
	storage fiber.Storage,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
) (*Service, error) {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if a == nil {
		panic("auth cannot be nil")
	}

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "authgate",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          templateEngine,
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
	}

	checkAlive := cfg.Webserver.CheckAlive
	if checkAlive == "" {
		checkAlive = defaultCheckAlive
	}

	cookies := session.NewCookies(cfg.DevMode)

	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		CheckAliveURI: checkAlive,
		UserID:        session.UserID,
	}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
			},
		),
	)

	app.Get(checkAlive, service.CheckAlive)

	if gatherer != nil {
		app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	app.Use(session.Middleware(session.Config{
		Resolver: a,
		Cookies:  cookies,
		Metrics:  m,
	}))

	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:" + handler.CSRFFormField,
		CookieName:     cookies.Name(session.CSRFCookie),
		CookieSecure:   cookies.Secure(),
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     csrfExpiration,
		Storage:        storage,
		ContextKey:     handler.CSRFLocalsKey,
	}))

	for _, h := range []struct {
		name    string
		service handler.Service
	}{
		{"api", new(api.Service)},
		{"signin", new(signin.Service)},
		{"signout", new(signout.Service)},
		{"error", new(errorpage.Service)},
		{"home", new(home.Service)},
	} {
		if err := h.service.Init(app, cfg, a); err != nil {
			return nil, fmt.Errorf("init %s handler: %w", h.name, err)
		}
	}

	if err := new(callback.Service).Init(app, cfg, a, m); err != nil {
		return nil, fmt.Errorf("init callback handler: %w", err)
	}

	service.alive.Store(true)

	return service, nil
}
