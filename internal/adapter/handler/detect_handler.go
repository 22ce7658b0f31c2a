package handler

import (
	"net/http"
	"path/filepath"
	"strings"
)

const maxUploadBytes = 15 << 20

func (h *Handler) diagnose(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid multipart form")
		return
	}

	f, hdr, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "field 'image' required")
		return
	}
	defer f.Close()

	name := filepath.Base(hdr.Filename)
	if !validImageName(name) {
		writeError(w, http.StatusBadRequest, "ValidationError", "only jpg/png images accepted")
		return
	}

	d, err := h.detect.Diagnose(r.Context(), f, name)
	if err != nil {
		h.log.Error("diagnosis failed", "filename", name, "error", err)
		writeError(w, http.StatusBadGateway, "UpstreamError", "classification service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func validImageName(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".jpg") || strings.HasSuffix(n, ".jpeg") || strings.HasSuffix(n, ".png")
}
