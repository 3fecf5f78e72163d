/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for browser clients
  5. RateLimit:  Token bucket per remote host (/api only)
  6. Signature:  X-Vault-* verification, replay rejection, signer into
                 context (/api only)

ROUTE GROUPS:
  /api/vault/*            Initialization, admins and carriers
  /api/accounts/*         Ledger and locks
  /api/shipments/*        Shipment escrow and insurance claims
  /api/batch-shipments/*  Batch-created shipments
  /api/deliveries/*       Delivery escrow
  /api/events             Event feed
  /metrics                Prometheus exposition
  /healthz                Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Signature verification
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/asset-vault/auth"
)

// RouterOptions tunes NewRouter. The zero value is usable.
type RouterOptions struct {
	AllowedOrigins []string
	RateLimiter    *RateLimiter  // nil disables rate limiting
	MaxSkew        time.Duration // signature timestamp window; 0 uses auth.DefaultMaxSkew
	Metrics        http.Handler  // served at /metrics when set
	Now            func() time.Time

	// Replay remembers accepted proofs; nil creates one sized for MaxSkew.
	Replay *auth.ReplayGuard
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxSkew <= 0 {
		opts.MaxSkew = auth.DefaultMaxSkew
	}
	if opts.Replay == nil {
		opts.Replay = auth.NewReplayGuard(2*opts.MaxSkew, auth.DefaultReplayCacheSize)
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Content-Type",
			auth.HeaderPublicKey, auth.HeaderTimestamp, auth.HeaderSignature,
		},
		MaxAge: 300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "chain_time": h.Vault.Now()})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(opts.RateLimiter.Middleware)
		r.Use(verifySignature(opts.MaxSkew, opts.Now, opts.Replay))

		r.Route("/vault", func(r chi.Router) {
			r.Post("/initialize", h.Initialize)
			r.Get("/admins", h.ListAdmins)
			r.Post("/admins", h.AddAdmin)
			r.Get("/carriers", h.ListCarriers)
			r.Post("/carriers", h.AddCarrier)
		})

		r.Route("/accounts/{address}", func(r chi.Router) {
			r.Get("/balance", h.GetBalance)
			r.Post("/deposit", h.Deposit)
			r.Post("/withdraw", h.Withdraw)
			r.Get("/locks", h.ListLocks)
			r.Post("/locks", h.CreateLock)
			r.Get("/transactions", h.GetTransactions)
		})

		r.Route("/shipments", func(r chi.Router) {
			r.Post("/", h.CreateShipment)
			r.Post("/batch", h.CreateShipmentsBatch)
			r.Get("/{id}", h.GetShipment)
			r.Get("/{id}/insurance", h.GetInsurance)
			r.Post("/{id}/insurance", h.DepositInsurance)
			r.Post("/{id}/dispute", h.DisputeShipment)
			r.Post("/{id}/claim", h.ClaimInsurance)
			r.Post("/{id}/tracking", h.UpdateTracking)
		})

		r.Get("/batch-shipments/{id}", h.GetBatchShipment)

		r.Route("/deliveries", func(r chi.Router) {
			r.Post("/", h.CreateDelivery)
			r.Get("/{id}", h.GetDelivery)
			r.Post("/{id}/confirm", h.ConfirmDelivery)
			r.Post("/{id}/dispute", h.DisputeDelivery)
			r.Post("/{id}/release", h.ReleaseDelivery)
		})

		r.Get("/events", h.ListEvents)
	})

	return r
}
