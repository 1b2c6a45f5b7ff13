package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/fairyhunter13/salon-offers/internal/handler"
	"github.com/fairyhunter13/salon-offers/internal/middleware"
	appvalidator "github.com/fairyhunter13/salon-offers/internal/validator"
)

const defaultBodyLimit = 10 * 1024 * 1024

// BackendDeps are the collaborators of the offers backend.
type BackendDeps struct {
	Offers       handler.OfferServiceInterface
	DB           handler.Pinger
	JWTSecret    []byte
	ManagerRoles []string
	BodyLimit    int
	AccessLog    bool
}

// ProxyDeps are the collaborators of the dashboard API proxy.
type ProxyDeps struct {
	Offers          handler.OfferClientInterface
	Upstream        handler.Pinger
	UpstreamBaseURL string
	Resources       []string
	BodyLimit       int
	AccessLog       bool
}

func newApp(name string, bodyLimit int, accessLog bool) *fiber.App {
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:      name,
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    bodyLimit,         // Multipart image uploads must fit
	})

	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	if accessLog {
		app.Use(logger.New())
	}
	return app
}

// NewBackendApp builds the offers backend: the /api/offers contract served from the
// offer service, with JWT verification and a role check on mutations.
func NewBackendApp(deps BackendDeps) *fiber.App {
	app := newApp("Salon Offers Backend", deps.BodyLimit, deps.AccessLog)

	app.Get("/health", handler.NewHealthHandler(deps.DB, "database").Check)

	offers := handler.NewOfferHandler(deps.Offers, appvalidator.New())
	offers.RegisterRoutes(app.Group("/api"),
		middleware.RequireJWT(deps.JWTSecret),
		middleware.RequireRole(deps.ManagerRoles...),
	)
	return app
}

// NewProxyApp builds the dashboard API proxy: /api/offers forwarded through the offer
// client and every configured resource forwarded verbatim.
func NewProxyApp(deps ProxyDeps) *fiber.App {
	app := newApp("Salon Dashboard API", deps.BodyLimit, deps.AccessLog)

	app.Get("/health", handler.NewHealthHandler(deps.Upstream, "backend").Check)

	api := app.Group("/api")
	handler.NewOfferProxyHandler(deps.Offers, appvalidator.New()).RegisterRoutes(api)
	handler.NewPassthroughHandler(deps.UpstreamBaseURL).RegisterRoutes(api, deps.Resources)
	return app
}
