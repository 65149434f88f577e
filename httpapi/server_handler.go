package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"chathub/auth"
	"chathub/domain"
	"chathub/errors"
	"chathub/query"
	"chathub/services"
)

type ServerHandler struct {
	service services.IServerService
	log     *slog.Logger
}

type createServerRequest struct {
	Name        string `json:"name"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
}

type updateServerRequest struct {
	Name        *string `json:"name"`
	CategoryID  *string `json:"category_id"`
	Description *string `json:"description"`
}

// List implements the filtered listing: category, qty, by_user,
// by_serverid, and with_num_members compose in a fixed order.
func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	params := query.Params{
		Category:       r.URL.Query().Get("category"),
		ByUser:         r.URL.Query().Get("by_user") == "true",
		WithNumMembers: r.URL.Query().Get("with_num_members") == "true",
		ByServerID:     r.URL.Query().Get("by_serverid"),
	}
	if raw := r.URL.Query().Get("qty"); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			writeError(w, h.log, errors.Ef(errors.KindValidation, "qty must be a positive integer, got %q", raw))
			return
		}
		params.Qty = &qty
	}

	var caller *domain.Identity
	if identity, ok := auth.IdentityFrom(r.Context()); ok {
		caller = &identity
	}
	projections, err := h.service.List(params, caller)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, projections)
}

func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.log)
	if !ok {
		return
	}
	var req createServerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	server, err := h.service.Create(services.CreateServerInput{
		Name:        req.Name,
		OwnerID:     identity.ID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, server)
}

func (h *ServerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	server, err := h.service.Get(id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, server)
}

// Put is the full update: name and category are mandatory, like on
// create.
func (h *ServerHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req updateServerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if req.Name == nil || req.CategoryID == nil {
		writeError(w, h.log, errors.E(errors.KindValidation, "name and category_id are required"))
		return
	}
	h.update(w, r, req)
}

// Patch leaves absent fields untouched.
func (h *ServerHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req updateServerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	h.update(w, r, req)
}

func (h *ServerHandler) update(w http.ResponseWriter, r *http.Request, req updateServerRequest) {
	identity, ok := requireIdentity(w, r, h.log)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	server, err := h.service.Get(id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if server.OwnerID != identity.ID {
		writeError(w, h.log, errors.ErrForbidden)
		return
	}
	updated, err := h.service.Update(id, services.UpdateServerInput{
		Name:        req.Name,
		CategoryID:  req.CategoryID,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ServerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.log)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	server, err := h.service.Get(id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if server.OwnerID != identity.ID {
		writeError(w, h.log, errors.ErrForbidden)
		return
	}
	if err := h.service.Delete(id); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
