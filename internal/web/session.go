package web

import (
	"net/http"
	"time"

	"github.com/ecologia-integral/ecosite/internal/admin"
	"github.com/ecologia-integral/ecosite/internal/auth"
)

const sessionCookie = "ecosite_session"

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, sess *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/admin",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/admin",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// session returns the verified session named by the request's cookie.
func (s *Server) session(r *http.Request) (*auth.Session, string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil, "", false
	}
	sess, err := s.auth.Verify(c.Value)
	if err != nil {
		return nil, "", false
	}
	return sess, c.Value, true
}

// controllerFor returns the workflow controller bound to sess, creating it on
// first use.
func (s *Server) controllerFor(sess *auth.Session) *admin.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.controllers[sess.ID]; ok {
		return c
	}
	for id, c := range s.controllers {
		if !c.Active() {
			delete(s.controllers, id)
		}
	}
	c := admin.NewController(sess, s.reviews, s.gallery, s.logger)
	s.controllers[sess.ID] = c
	return c
}

func (s *Server) dropController(sessionID string) {
	s.mu.Lock()
	delete(s.controllers, sessionID)
	s.mu.Unlock()
}

// withController resolves the admin session before calling h. Requests
// without one are sent to the login view.
func (s *Server) withController(h func(http.ResponseWriter, *http.Request, *admin.Controller)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _, ok := s.session(r)
		if !ok {
			s.unauthenticated(w, r)
			return
		}
		h(w, r, s.controllerFor(sess))
	}
}

func (s *Server) unauthenticated(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/admin/login")
		http.Error(w, "Sessão expirada. Entre novamente.", http.StatusUnauthorized)
		return
	}
	if r.Method == http.MethodGet {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	http.Error(w, "Sessão expirada. Entre novamente.", http.StatusUnauthorized)
}
