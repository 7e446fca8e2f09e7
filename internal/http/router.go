package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the API surface. The handler set is everything the
// storefront UI talks to.
func NewRouter(carts *CartHandler, checkouts *CheckoutHandler, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(SessionMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.Post("/items", carts.AddItem)
			r.Put("/items/{product_id}", carts.UpdateQuantity)
			r.Delete("/items/{product_id}", carts.RemoveItem)
			r.Post("/clear", carts.ClearCart)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkouts.Initiate)
			r.Get("/return", checkouts.Return)
			r.Get("/gateway", checkouts.GatewayStatus)
			r.Get("/pending", checkouts.PendingStatus)
		})
	})

	return r
}
