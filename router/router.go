package router

import (
	"context"
	"net/http"
	"time"

	authHandler "notevault/internal/auth"
	docHandler "notevault/internal/document"
	"notevault/middleware"
	"notevault/socket"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Auth           authHandler.Service
	Documents      docHandler.Service
	Tokens         middleware.TokenValidator
	Hub            *socket.Hub
	DB             Pinger
	Location       *time.Location
	AllowedOrigins []string

	// LoginLimiter is optional; nil disables login throttling.
	LoginLimiter    middleware.Counter
	LoginRateLimit  int64
	LoginRateWindow time.Duration
}

func Setup(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("OK"))
	})

	// Auth
	auth := authHandler.NewAuthHandler(d.Auth)
	r.Post("/register", auth.Register)
	r.Group(func(r chi.Router) {
		if d.LoginLimiter != nil {
			r.Use(middleware.RateLimit(d.LoginLimiter, middleware.LoginRateLimitKeyPrefix, d.LoginRateLimit, d.LoginRateWindow))
		}
		r.Post("/login", auth.Login)
	})

	// Documents
	docs := docHandler.NewDocumentHandler(d.Documents, d.Location)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(d.Tokens))

		r.Post("/document", docs.CreateDocument)
		r.Get("/documents", docs.GetDocuments)
		r.Get("/search", docs.SearchDocuments)
		r.Get("/document/{id}", docs.GetDocument)
		r.Put("/document/{id}", docs.UpdateDocument)
		r.Delete("/document/{id}", docs.DeleteDocument)
	})

	// Change feed
	if d.Hub != nil {
		r.With(middleware.AuthWS(d.Tokens)).Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			identity, _ := middleware.IdentityFrom(r.Context())
			socket.ServeWs(d.Hub, w, r, identity.UserID)
		})
	}

	return r
}
