package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"keuangan/internal/core"
	"keuangan/internal/gateway"
)

// handleIndex renders the login screen for visitors and the app shell for
// an authenticated session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Halaman tidak ditemukan").Write(w)
		return
	}

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		s.render(w, r, "login.html", loginView{})
		return
	}
	sess, err := s.sessions.Resolve(r.Context(), cookie.Value)
	if err != nil {
		s.clearSessionCookie(w)
		s.render(w, r, "login.html", loginView{})
		return
	}

	if err := s.ensureLoaded(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Initial load failed", "error", err)
		InternalServerError("Gagal memuat data").Write(w)
		return
	}

	s.render(w, r, "index.html", s.buildShell(sess.Email))
}

func (s *Server) buildShell(email string) shellView {
	shell := shellView{
		Email:      email,
		ActiveView: s.currentView(),
	}
	switch shell.ActiveView {
	case ViewCategories:
		shell.Categories = &categoryListsView{
			Income:  s.cats.ByType(core.Income),
			Expense: s.cats.ByType(core.Expense),
		}
	default:
		shell.Dashboard = s.buildDashboard()
	}
	return shell
}

func (s *Server) buildDashboard() *dashboardView {
	sum := s.txs.Summary()
	return &dashboardView{
		Summary: buildSummaryView(sum),
		Chart:   buildChartView(sum),
		Form: formView{
			Type:       core.Expense,
			TypeLabel:  typeLabel(core.Expense),
			Categories: s.cats.ByType(core.Expense),
			Today:      time.Now().Format(dateLayout),
		},
		Activity: buildActivityView(s.txs.List()),
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.render(w, r, "login.html", loginView{Error: "Formulir tidak valid"})
		return
	}

	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")
	if email == "" || password == "" {
		s.render(w, r, "login.html", loginView{Error: "Email dan kata sandi wajib diisi"})
		return
	}

	sess, err := s.sessions.SignIn(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidCredentials) {
			s.render(w, r, "login.html", loginView{Error: "Email atau kata sandi salah"})
			return
		}
		slog.ErrorContext(r.Context(), "Sign in failed", "error", err)
		s.render(w, r, "login.html", loginView{Error: "Terjadi kesalahan. Silakan coba lagi."})
		return
	}

	s.setSessionCookie(w, sess.Token)
	s.setView(ViewDashboard)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.sessions.SignOut(r.Context()); err != nil {
		slog.WarnContext(r.Context(), "Sign out error", "error", err)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}
