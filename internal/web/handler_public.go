package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ecologia-integral/ecosite/internal/blobstore"
	"github.com/ecologia-integral/ecosite/internal/content"
	"github.com/ecologia-integral/ecosite/internal/domain"
	"github.com/ecologia-integral/ecosite/internal/service"
)

const (
	msgReviewSent  = "Sua avaliação foi enviada com sucesso e será analisada em breve."
	msgReviewRetry = "Ocorreu um erro ao enviar sua avaliação. Tente novamente."
)

var homeFiles = []string{
	"base.html", "pages/home.html",
	"partials/review_form.html", "partials/carousel.html",
}

// reviewForm is the state of the public review form. Field values are kept
// as entered so a rejected submission can be corrected.
type reviewForm struct {
	Name    string
	Age     string
	Rating  int
	Comment string
	Success string
	Error   string
	Invalid *service.ValidationError
}

// FieldError returns the message for one rejected field.
func (f reviewForm) FieldError(name string) string {
	if f.Invalid == nil {
		return ""
	}
	return f.Invalid.Field(name)
}

// RatingOptions lists the selectable ratings, highest first.
func (f reviewForm) RatingOptions() []int { return []int{5, 4, 3, 2, 1} }

type homePage struct {
	Site               *content.Site
	Reviews            []*domain.Review
	ReviewsUnavailable bool
	Carousel           carousel
	GalleryUnavailable bool
	Form               reviewForm
}

func (s *Server) homeData(ctx context.Context, slide string) homePage {
	page := homePage{Site: s.site}

	reviews, err := s.reviews.ListApproved(ctx)
	if err != nil {
		s.logger.Error("failed to list approved reviews", "error", err)
		page.ReviewsUnavailable = true
	}
	page.Reviews = reviews

	items, err := s.gallery.List(ctx)
	if err != nil {
		s.logger.Error("failed to list gallery", "error", err)
		page.GalleryUnavailable = true
	}
	page.Carousel = newCarousel(items, slide)
	return page
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	page := s.homeData(r.Context(), r.URL.Query().Get("slide"))
	if r.URL.Query().Get("enviado") == "1" {
		page.Form.Success = msgReviewSent
	}
	if err := s.renderPage(w, http.StatusOK, page, homeFiles...); err != nil {
		s.logger.Error("render page error", "page", "home", "error", err)
	}
}

func (s *Server) handleCarousel(w http.ResponseWriter, r *http.Request) {
	items, err := s.gallery.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list gallery", "error", err)
		http.Error(w, "Não foi possível carregar a galeria.", http.StatusInternalServerError)
		return
	}
	c := newCarousel(items, r.URL.Query().Get("slide"))
	if err := s.renderPartial(w, http.StatusOK, "carousel", c, "partials/carousel.html"); err != nil {
		s.logger.Error("render partial error", "partial", "carousel", "error", err)
	}
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	form := reviewForm{
		Name:    r.PostFormValue("name"),
		Age:     strings.TrimSpace(r.PostFormValue("age")),
		Rating:  atoiOrZero(r.PostFormValue("rating")),
		Comment: r.PostFormValue("comment"),
	}
	sub := service.Submission{
		Name:    form.Name,
		Age:     atoiOrZero(form.Age),
		Rating:  form.Rating,
		Comment: form.Comment,
	}

	status := http.StatusOK
	_, err := s.reviews.Submit(r.Context(), sub)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		form.Error = verr.Message()
		form.Invalid = verr
	case err != nil:
		s.logger.Error("failed to submit review", "error", err)
		if isHTMX(r) {
			http.Error(w, msgReviewRetry, http.StatusInternalServerError)
			return
		}
		status = http.StatusInternalServerError
		form.Error = msgReviewRetry
	default:
		if !isHTMX(r) {
			http.Redirect(w, r, "/?enviado=1#avaliar", http.StatusSeeOther)
			return
		}
		form = reviewForm{Success: msgReviewSent}
	}

	if !isHTMX(r) {
		page := s.homeData(r.Context(), "")
		page.Form = form
		if err := s.renderPage(w, status, page, homeFiles...); err != nil {
			s.logger.Error("render page error", "page", "home", "error", err)
		}
		return
	}
	if err := s.renderPartial(w, status, "review_form", form, "partials/review_form.html"); err != nil {
		s.logger.Error("render partial error", "partial", "review_form", "error", err)
	}
}

type galleryPage struct {
	Site        *content.Site
	Viewer      viewer
	Unavailable bool
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	page := galleryPage{Site: s.site}
	items, err := s.gallery.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list gallery", "error", err)
		page.Unavailable = true
	}
	page.Viewer = newViewer(items, r.URL.Query().Get("item"))

	if err := s.renderPage(w, http.StatusOK, page, "base.html", "pages/gallery.html"); err != nil {
		s.logger.Error("render page error", "page", "gallery", "error", err)
	}
}

// handleMedia serves blobs kept by a local blob store. Keys are unique per
// upload so responses are cacheable indefinitely.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if s.media == nil || !blobstore.ValidKey(key) {
		http.NotFound(w, r)
		return
	}

	rc, contentType, err := s.media.Open(r.Context(), key)
	if errors.Is(err, blobstore.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to read media", http.StatusInternalServerError)
		s.logger.Error("open media failed", "key", key, "error", err)
		return
	}
	defer closeWithLog(rc, "media reader", s.logger)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, key, time.Time{}, rs)
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Error("write media failed", "key", key, "error", err)
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
