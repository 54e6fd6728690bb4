package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"keuangan/internal/core"
	"keuangan/internal/session"
	"keuangan/internal/store"
	appweb "keuangan/web"
)

const sessionCookieName = "keuangan_session"

// View names the UI the main area shows. There is no URL routing between
// views; the selector posts to /view and the shell re-renders.
type View string

const (
	ViewDashboard  View = "dashboard"
	ViewCategories View = "categories"
)

type Server struct {
	http.Server
	templates    *template.Template
	sessions     *session.Controller
	cats         *store.Categories
	txs          *store.Transactions
	rateLimiter  *rateLimiter
	secureCookie bool
	sessionTTL   time.Duration

	mu         sync.Mutex
	activeView View

	shutdownOnce sync.Once
}

type Options struct {
	Addr         string
	SecureCookie bool
	SessionTTL   time.Duration
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(opts Options, sessions *session.Controller, cats *store.Categories, txs *store.Transactions) *Server {
	mux := http.NewServeMux()

	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		sessions:     sessions,
		cats:         cats,
		txs:          txs,
		rateLimiter:  newRateLimiter(),
		secureCookie: opts.SecureCookie,
		sessionTTL:   ttl,
		activeView:   ViewDashboard,
	}

	t, err := template.New("").Funcs(template.FuncMap{
		"rupiah": formatRupiah,
		"date":   func(t time.Time) string { return t.Format(dateLayout) },
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("/view", s.withSecurityHeaders(s.requireSession(s.handleSelectView)))
	mux.HandleFunc("/transactions", s.withSecurityHeaders(s.requireSession(s.handleCreateTransaction)))
	mux.HandleFunc("/transactions/delete", s.withSecurityHeaders(s.requireSession(s.handleDeleteTransaction)))
	mux.HandleFunc("/categories", s.withSecurityHeaders(s.requireSession(s.handleCreateCategory)))
	mux.HandleFunc("/categories/delete", s.withSecurityHeaders(s.requireSession(s.handleDeleteCategory)))
	mux.HandleFunc("/ui/overview", s.withSecurityHeaders(s.requireSession(s.handleOverview)))
	mux.HandleFunc("/ui/activity", s.withSecurityHeaders(s.requireSession(s.handleActivity)))
	mux.HandleFunc("/ui/categories", s.withSecurityHeaders(s.requireSession(s.handleCategoryLists)))
	mux.HandleFunc("/ui/category-options", s.withSecurityHeaders(s.requireSession(s.handleCategoryOptions)))

	return s
}

// Shutdown stops the server and its cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging around a handler.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", ip,
			"user_agent", r.Header.Get("User-Agent"))

		if r.Method == http.MethodPost && !s.rateLimiter.allow(ip) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", ip, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", ip)
	}
}

type contextKey string

const requestIDContextKey contextKey = "request_id"

// requireSession resolves the session cookie before the handler runs.
// Browsers get redirected to the login screen; HTMX requests get a
// client-side redirect header instead, since a 302 would be swallowed by
// the partial swap.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			s.redirectToLogin(w, r)
			return
		}
		if _, err := s.sessions.Resolve(r.Context(), cookie.Value); err != nil {
			s.clearSessionCookie(w)
			s.redirectToLogin(w, r)
			return
		}
		next(w, r)
	}
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ensureLoaded fetches both stores when they have not loaded for the
// current session yet.
func (s *Server) ensureLoaded(ctx context.Context) error {
	if s.cats.State() != store.Loaded {
		if err := s.cats.Refresh(ctx); err != nil {
			return err
		}
	}
	if s.txs.State() != store.Loaded {
		if err := s.txs.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) currentView() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeView
}

func (s *Server) setView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeView = v
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// typeLabel maps a transaction type to its display name.
func typeLabel(t core.TransactionType) string {
	if t == core.Income {
		return core.IncomeLabel
	}
	return core.ExpenseLabel
}
