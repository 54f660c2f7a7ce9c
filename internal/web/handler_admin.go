package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ecologia-integral/ecosite/internal/admin"
	"github.com/ecologia-integral/ecosite/internal/auth"
	"github.com/ecologia-integral/ecosite/internal/content"
	"github.com/ecologia-integral/ecosite/internal/domain"
	"github.com/ecologia-integral/ecosite/internal/service"
	"github.com/ecologia-integral/ecosite/internal/store"
)

const (
	msgBusy         = "Outra operação neste item ainda está em andamento."
	msgNotFound     = "Item não encontrado."
	msgLoginFailed  = "Senha incorreta."
	msgLoadFailed   = "Não foi possível carregar as avaliações."
	msgUpdateFailed = "Não foi possível atualizar a avaliação."
	msgEditFailed   = "Não foi possível editar o comentário."
	msgDeleteFailed = "Não foi possível apagar o comentário."
)

var adminPartials = []string{
	"partials/admin_reviews.html", "partials/admin_review.html", "partials/admin_gallery.html",
}

type reviewRow struct {
	ID        int64
	Name      string
	Age       int
	Rating    int
	Comment   string
	CreatedAt time.Time
	State     domain.ModerationState
	Busy      bool
}

type itemRow struct {
	ID       int64
	FileName string
	FileURL  string
	Caption  string
	Alt      string
	Video    bool
	Busy     bool
	// PrevID and NextID are the neighbouring items, 0 at either end.
	PrevID int64
	NextID int64
}

// adminView is a rendering snapshot of one controller.
type adminView struct {
	Pending    []reviewRow
	Approved   []reviewRow
	Rejected   []reviewRow
	Items      []itemRow
	Reordering bool
	Uploading  bool
	LoadError  string
}

func newAdminView(c *admin.Controller) adminView {
	v := adminView{
		Reordering: c.Busy(admin.ReorderKey),
		Uploading:  c.Busy(admin.UploadKey),
	}
	for _, r := range c.Reviews() {
		row := reviewRow{
			ID:        r.ID,
			Name:      r.Name,
			Age:       r.Age,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
			State:     r.State(),
			Busy:      c.Busy(admin.ReviewKey(r.ID)),
		}
		switch row.State {
		case domain.StateApproved:
			v.Approved = append(v.Approved, row)
		case domain.StateRejected:
			v.Rejected = append(v.Rejected, row)
		default:
			v.Pending = append(v.Pending, row)
		}
	}

	items := c.Gallery()
	for i, it := range items {
		row := itemRow{
			ID:       it.ID,
			FileName: it.FileName,
			FileURL:  it.FileURL,
			Caption:  it.CaptionText(),
			Alt:      it.AltText(),
			Video:    it.IsVideo(),
			Busy:     c.Busy(admin.GalleryKey(it.ID)),
		}
		if i > 0 {
			row.PrevID = items[i-1].ID
		}
		if i < len(items)-1 {
			row.NextID = items[i+1].ID
		}
		v.Items = append(v.Items, row)
	}
	return v
}

type loginPage struct {
	Site  *content.Site
	Error string
}

type adminPage struct {
	Site *content.Site
	View adminView
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.session(r); ok {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	s.renderLogin(w, http.StatusOK, "")
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, msg string) {
	page := loginPage{Site: s.site, Error: msg}
	if err := s.renderPage(w, status, page, "base.html", "pages/login.html"); err != nil {
		s.logger.Error("render page error", "page", "login", "error", err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	s.loginLimiter.Take()
	sess, token, err := s.auth.Login(r.PostFormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("admin login failed", "remote_addr", r.RemoteAddr)
		s.renderLogin(w, http.StatusUnauthorized, msgLoginFailed)
		return
	}
	if err != nil {
		s.logger.Error("admin login error", "error", err)
		http.Error(w, "failed to sign in", http.StatusInternalServerError)
		return
	}

	s.logger.Info("admin signed in", "session_id", sess.ID)
	s.setSessionCookie(w, token, sess)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, token, ok := s.session(r); ok {
		s.auth.Logout(token)
		s.dropController(sess.ID)
		s.logger.Info("admin signed out", "session_id", sess.ID)
	}
	s.clearSessionCookie(w)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/admin/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request, c *admin.Controller) {
	loadErr := c.Load(r.Context())
	if errors.Is(loadErr, admin.ErrUnauthenticated) {
		s.unauthenticated(w, r)
		return
	}

	page := adminPage{Site: s.site, View: newAdminView(c)}
	if loadErr != nil {
		page.View.LoadError = msgLoadFailed
	}
	files := append([]string{"base.html", "pages/admin.html"}, adminPartials...)
	if err := s.renderPage(w, http.StatusOK, page, files...); err != nil {
		s.logger.Error("render page error", "page", "admin", "error", err)
	}
}

func (s *Server) handleReviewsPanel(w http.ResponseWriter, r *http.Request, c *admin.Controller) {
	s.renderPanel(w, r, c, "admin_reviews", "")
}

func (s *Server) handleModerate(
	op func(*admin.Controller, context.Context, int64) error,
	success string,
) func(http.ResponseWriter, *http.Request, *admin.Controller) {
	return func(w http.ResponseWriter, r *http.Request, c *admin.Controller) {
		id, err := parseID(r)
		if err != nil {
			http.Error(w, "invalid review id", http.StatusBadRequest)
			return
		}
		if err := op(c, r.Context(), id); err != nil {
			s.adminError(w, r, err, msgUpdateFailed)
			return
		}
		s.renderPanel(w, r, c, "admin_reviews", success)
	}
}

func (s *Server) handleEditComment(w http.ResponseWriter, r *http.Request, c *admin.Controller) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid review id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	text := r.PostFormValue("comment")
	if err := c.EditComment(r.Context(), id, text); err != nil {
		s.adminError(w, r, err, msgEditFailed)
		return
	}
	msg := "Comentário editado com sucesso."
	if strings.TrimSpace(text) == "" {
		msg = ""
	}
	s.renderPanel(w, r, c, "admin_reviews", msg)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request, c *admin.Controller) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid review id", http.StatusBadRequest)
		return
	}
	if err := c.DeleteReview(r.Context(), id); err != nil {
		s.adminError(w, r, err, msgDeleteFailed)
		return
	}
	s.renderPanel(w, r, c, "admin_reviews", "Comentário apagado com sucesso.")
}

// renderPanel answers a successful admin action. htmx requests get the
// refreshed panel and a toast; plain form posts are sent back to the panel.
func (s *Server) renderPanel(w http.ResponseWriter, r *http.Request, c *admin.Controller, panel, toast string) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	if toast != "" {
		setTrigger(w, map[string]any{"toast": toast})
	}
	if err := s.renderPartial(w, http.StatusOK, panel, newAdminView(c), adminPartials...); err != nil {
		s.logger.Error("render partial error", "partial", panel, "error", err)
	}
}

// adminError maps a workflow error to a response. Messages are plain text
// for the page's toast and never replace the panel.
func (s *Server) adminError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	if errors.Is(err, admin.ErrUnauthenticated) {
		s.unauthenticated(w, r)
		return
	}
	w.Header().Set("HX-Reswap", "none")

	var verr *service.ValidationError
	var rerr *admin.ReorderError
	switch {
	case errors.As(err, &rerr):
		setTrigger(w, map[string]any{"gallery-changed": true})
		http.Error(w, failure, http.StatusInternalServerError)
	case errors.Is(err, admin.ErrBusy):
		http.Error(w, msgBusy, http.StatusConflict)
	case errors.Is(err, admin.ErrNotFound), errors.Is(err, store.ErrNotFound):
		http.Error(w, msgNotFound, http.StatusNotFound)
	case errors.As(err, &verr):
		http.Error(w, verr.Message(), http.StatusBadRequest)
	default:
		http.Error(w, failure, http.StatusInternalServerError)
	}
}

// setTrigger sets the HX-Trigger header. Non-ASCII text is escaped so the
// header survives browsers that decode it as Latin-1.
func setTrigger(w http.ResponseWriter, events map[string]any) {
	data, err := json.Marshal(events)
	if err != nil {
		return
	}
	var b strings.Builder
	for _, r := range string(data) {
		switch {
		case r < 0x80:
			b.WriteRune(r)
		case r > 0xFFFF:
			r -= 0x10000
			fmt.Fprintf(&b, `\u%04x\u%04x`, 0xD800+(r>>10), 0xDC00+(r&0x3FF))
		default:
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	w.Header().Set("HX-Trigger", b.String())
}
