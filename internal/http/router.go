package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/checkout"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/geo"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/metrics"
)

type RouterConfig struct {
	Registry       *Registry
	Wizard         *checkout.Wizard
	Locations      geo.IPResolver
	Tokens         *TokenValidator
	Metrics        *metrics.Metrics
	Log            *slog.Logger
	RequestTimeout time.Duration
	DeviceTimeout  time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cartHandler := NewCartHandler(timeout)
	stockHandler := NewStockHandler(timeout)
	addressHandler := NewAddressHandler(timeout)
	shippingHandler := NewShippingHandler(cfg.Locations, cfg.DeviceTimeout, timeout)
	checkoutHandler := NewCheckoutHandler(cfg.Wizard, timeout)
	sessionHandler := NewSessionHandler(timeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware(cfg.Log))
	r.Use(cfg.Metrics.Middleware)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", Health)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens))
		r.Use(WorkspaceMiddleware(cfg.Registry))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Route("/stock", func(r chi.Router) {
			r.Post("/validate", stockHandler.ValidateCart)
			r.Get("/{product_id}", stockHandler.GetStatus)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", addressHandler.List)
			r.Post("/", addressHandler.Create)
			r.Patch("/{id}", addressHandler.Update)
			r.Delete("/{id}", addressHandler.Remove)
			r.Post("/{id}/primary", addressHandler.SetPrimary)
		})

		r.Route("/shipping", func(r chi.Router) {
			r.Post("/quote", shippingHandler.Quote)
			r.Post("/select", shippingHandler.Select)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Start)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", checkoutHandler.Get)
				r.Delete("/", checkoutHandler.Abandon)
				r.Put("/delivery-method", checkoutHandler.SetDeliveryMethod)
				r.Put("/contact", checkoutHandler.SetContact)
				r.Put("/address", checkoutHandler.SetAddress)
				r.Get("/shipping-options", checkoutHandler.ShippingOptions)
				r.Put("/carrier", checkoutHandler.SetCarrier)
				r.Put("/store", checkoutHandler.SetStore)
				r.Post("/continue", checkoutHandler.Continue)
				r.Post("/back", checkoutHandler.Back)
				r.Post("/confirm", checkoutHandler.Confirm)
			})
		})

		r.Route("/session", func(r chi.Router) {
			r.Post("/sign-in", sessionHandler.SignIn)
			r.Post("/sign-out", sessionHandler.SignOut)
		})
	})

	return r
}
