package httpapi

import (
	"io"
	"log/slog"
	"net/http"

	"chathub/errors"
	"chathub/services"
)

const maxUploadBytes = 32 << 20

type AttachmentHandler struct {
	service services.IAttachmentService
	log     *slog.Logger
}

// Upload accepts a multipart form with a single "file" part, stores the
// bytes in the blob store, and records the attachment.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.log)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, h.log, errors.Wrap(errors.KindValidation, err, "malformed multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.log, errors.Wrap(errors.KindValidation, err, "missing file part"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	attachment, err := h.service.Upload(data, header.Filename, identity)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, attachment)
}

func (h *AttachmentHandler) Content(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	data, attachment, err := h.service.Content(id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if attachment.ContentType != "" {
		w.Header().Set("Content-Type", attachment.ContentType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r, h.log); !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.service.Delete(id); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
