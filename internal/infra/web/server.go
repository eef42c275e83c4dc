package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"quokka-directory/internal/infra/logging"
	"quokka-directory/internal/infra/redis"
	"quokka-directory/internal/usecase"
)

type Server struct {
	directoryUC usecase.DirectoryUseCase
	paymentUC   usecase.PaymentUseCase
	promoUC     usecase.PromoUseCase
	giftUC      usecase.GiftUseCase
	subUC       usecase.SubscriptionUseCase
	auth        *AuthManager
	limiter     *redis.RateLimiter
	ratePerMin  int
	log         *zerolog.Logger
}

func NewServer(
	directoryUC usecase.DirectoryUseCase,
	paymentUC usecase.PaymentUseCase,
	promoUC usecase.PromoUseCase,
	giftUC usecase.GiftUseCase,
	subUC usecase.SubscriptionUseCase,
	auth *AuthManager,
	limiter *redis.RateLimiter,
	ratePerMin int,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		directoryUC: directoryUC,
		paymentUC:   paymentUC,
		promoUC:     promoUC,
		giftUC:      giftUC,
		subUC:       subUC,
		auth:        auth,
		limiter:     limiter,
		ratePerMin:  ratePerMin,
		log:         &srvLog,
	}
}

// Router assembles the public and admin route trees.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Public directory surface, rate limited per client.
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Get("/directory", s.directoryListHandler())
			r.Get("/directory/{id}", s.directoryGetHandler())
			r.Post("/directory/{id}/view", s.viewHandler())
			r.Post("/directory/{id}/visit", s.engagementHandler(s.directoryUC.RecordVisit))
			r.Post("/directory/{id}/click", s.engagementHandler(s.directoryUC.RecordClick))
			r.Post("/directory/{id}/like", s.engagementHandler(s.directoryUC.RecordLike))
			r.Post("/promos/validate", s.promoValidateHandler())
		})

		// Checkout surface, called by the payment provider integration.
		r.Post("/payments", s.paymentCreateHandler())
		r.Post("/payments/complete", s.paymentCompleteHandler())
		r.Post("/promos/redeem", s.promoRedeemHandler())
		r.Get("/payments/session/{sid}", s.paymentBySessionHandler())
		r.Get("/payments/session/{sid}/window", s.paymentWindowHandler())
		r.Get("/users/{id}/payments", s.userPaymentsHandler())
		r.Get("/users/{id}/payments/{pid}", s.userPaymentGetHandler())

		// Admin surface behind the session middleware.
		r.Post("/admin/login", s.loginHandler())
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.Post("/admin/logout", s.logoutHandler())

			r.Post("/admin/gifts", s.giftHandler())

			r.Post("/admin/promos", s.promoCreateHandler())
			r.Get("/admin/promos", s.promoListHandler())
			r.Patch("/admin/promos/{code}/active", s.promoSetActiveHandler())

			r.Post("/admin/listings", s.listingCreateHandler())
			r.Patch("/admin/listings/{id}/visibility", s.listingVisibilityHandler())

			r.Get("/admin/subscriptions", s.subscriptionListHandler())
			r.Get("/admin/listings/{id}/subscriptions", s.listingSubscriptionsHandler())
			r.Get("/admin/owners/{id}/subscriptions", s.ownerSubscriptionsHandler())
			r.Post("/admin/subscriptions", s.subscriptionCreateHandler())
			r.Delete("/admin/subscriptions/{id}", s.subscriptionRevokeHandler())

			r.Get("/admin/payments", s.adminPaymentListHandler())
			r.Delete("/admin/payments/{id}", s.adminPaymentDeleteHandler())
			r.Post("/admin/payments/{sid}/promotion-window", s.promotionWindowHandler())
		})
	})

	return r
}

// requestLogger tags the request context and emits one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		ctx := logging.WithRequestID(r.Context(), reqID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.log.Info().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// rateLimit applies the fixed-window limiter per remote address and route.
// A limiter outage fails open: the directory must stay readable.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := redis.ClientKey(r.RemoteAddr, r.URL.Path)
		ok, err := s.limiter.Allow(r.Context(), key, s.ratePerMin, time.Minute)
		if err != nil {
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
