package router

import (
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/cartstore/internal/api"
	m "github.com/RoyceAzure/lab/cartstore/internal/api/middleware"
	"github.com/RoyceAzure/lab/cartstore/internal/api/response"
	"github.com/RoyceAzure/lab/cartstore/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func SetupRouter(server *api.Server, limiter ratelimit.Limiter, sessionTTL time.Duration, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.SuccessJSON(w, nil, "ok")
	})

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(m.SessionMiddleware(sessionTTL))
		if limiter != nil {
			r.Use(m.RateLimitMiddleware(limiter))
		}

		r.Get("/products", server.ProductHandler.ListProducts)
		r.Get("/products/{code}", server.ProductHandler.GetProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", server.CartHandler.GetCart)
			r.Delete("/", server.CartHandler.ClearCart)
			r.Post("/items", server.CartHandler.AddItem)
			r.Put("/items/{id}", server.CartHandler.UpdateQuantity)
			r.Delete("/items/{id}", server.CartHandler.RemoveItem)
		})

		r.Delete("/session", server.CartHandler.EndSession)
	})

	chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		logger.Debug().Str("method", method).Str("route", route).Msg("route registered")
		return nil
	})
	return r
}
