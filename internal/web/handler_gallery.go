package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ecologia-integral/ecosite/internal/admin"
	"github.com/ecologia-integral/ecosite/internal/service"
)

const (
	// multipartOverhead allows for the form fields and part headers around
	// a file of the maximum accepted size.
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20

	msgUploadTooLarge   = "O arquivo excede o limite de 50 MB."
	msgUploadMissing    = "Selecione um arquivo para enviar."
	msgUploadFailed     = "Não foi possível enviar o arquivo."
	msgCaptionFailed    = "Não foi possível atualizar a legenda."
	msgItemDeleteFailed = "Não foi possível apagar a mídia."
	msgReorderFailed    = "Não foi possível salvar a nova ordem. A galeria foi recarregada."
)

func (s *Server) handleGalleryPanel(w http.ResponseWriter, r *http.Request, c *admin.Controller) {
	s.renderPanel(w, r, c, "admin_gallery", "")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, c *admin.Controller) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		w.Header().Set("HX-Reswap", "none")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, msgUploadTooLarge, http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Error("failed to remove multipart temp files", "error", err)
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		w.Header().Set("HX-Reswap", "none")
		http.Error(w, msgUploadMissing, http.StatusBadRequest)
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	item, err := c.Upload(r.Context(), service.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		Caption:     r.FormValue("caption"),
	})
	if err != nil {
		s.adminError(w, r, err, msgUploadFailed)
		return
	}
	s.logger.Info("gallery item uploaded", "item_id", item.ID, "file_type", item.FileType)
	s.renderPanel(w, r, c, "admin_gallery", "Arquivo enviado com sucesso.")
}

func (s *Server) handleCaption(w http.ResponseWriter, r *http.Request, c *admin.Controller) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	if err := c.UpdateCaption(r.Context(), id, r.PostFormValue("caption")); err != nil {
		s.adminError(w, r, err, msgCaptionFailed)
		return
	}
	s.renderPanel(w, r, c, "admin_gallery", "Legenda atualizada com sucesso.")
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request, c *admin.Controller) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	if err := c.DeleteItem(r.Context(), id); err != nil {
		s.adminError(w, r, err, msgItemDeleteFailed)
		return
	}
	s.renderPanel(w, r, c, "admin_gallery", "Mídia apagada com sucesso.")
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request, c *admin.Controller) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	source, serr := strconv.ParseInt(r.PostFormValue("source"), 10, 64)
	target, terr := strconv.ParseInt(r.PostFormValue("target"), 10, 64)
	if serr != nil || terr != nil {
		w.Header().Set("HX-Reswap", "none")
		http.Error(w, "invalid source or target", http.StatusBadRequest)
		return
	}

	if err := c.Reorder(r.Context(), source, target); err != nil {
		s.adminError(w, r, err, msgReorderFailed)
		return
	}
	s.renderPanel(w, r, c, "admin_gallery", "")
}
