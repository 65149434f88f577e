package httpapi

import (
	"log/slog"
	"net/http"

	"chathub/services"
)

type MembershipHandler struct {
	service services.IServerService
	log     *slog.Logger
}

func (h *MembershipHandler) Join(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.log)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.service.Join(id, identity); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user joined server successfully"})
}

func (h *MembershipHandler) Leave(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.log)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.service.Leave(id, identity); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user removed from server"})
}

func (h *MembershipHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.log)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	member, err := h.service.IsMember(id, identity)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_member": member})
}
