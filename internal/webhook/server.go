package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/groupgate/pixbot/internal/models"
)

const recentPaymentsLimit = 100

type PaymentLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.PaymentRecord, error)
}

// Server hosts the inert payment-gateway webhook stub and a small basic-auth
// ops surface over the payment audit log.
type Server struct {
	addr     string
	username string
	password string
	log      *slog.Logger
	payments PaymentLister
	router   *chi.Mux
}

func NewServer(addr, username, password string, log *slog.Logger, payments PaymentLister) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:     addr,
		username: username,
		password: password,
		log:      log,
		payments: payments,
		router:   r,
	}
	r.Post("/webhook/mp", s.handleMercadoPagoWebhook)
	r.Group(func(protected chi.Router) {
		protected.Use(s.basicAuthMiddleware())
		protected.Get("/payments", s.handleListPayments)
	})
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("webhook shutdown error", "err", err)
		}
	}()

	s.log.Info("webhook server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook listen: %w", err)
	}
	return nil
}

// handleMercadoPagoWebhook is a placeholder surface: payment confirmation is
// pull-based (the "check payment" button), so notifications are acknowledged
// and discarded without verification.
func (s *Server) handleMercadoPagoWebhook(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.payments.ListRecent(r.Context(), recentPaymentsLimit)
	if err != nil {
		s.log.Error("list payments", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if payments == nil {
		payments = []models.PaymentRecord{}
	}
	s.writeJSON(w, http.StatusOK, payments)
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.username || pass != s.password {
				w.Header().Set("WWW-Authenticate", `Basic realm="pixbot"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
