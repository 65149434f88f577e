package httpapi

import (
	"log/slog"
	"net/http"

	"chathub/services"
)

type ChannelHandler struct {
	service services.IChannelService
	log     *slog.Logger
}

type channelRequest struct {
	Name  *string `json:"name"`
	Topic *string `json:"topic"`
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r, h.log); !ok {
		return
	}
	serverID, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req channelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	var name, topic string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Topic != nil {
		topic = *req.Topic
	}
	channel, err := h.service.Create(serverID, name, topic)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, channel)
}

func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	channel, err := h.service.Get(id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

func (h *ChannelHandler) ListByServer(w http.ResponseWriter, r *http.Request) {
	serverID, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	channels, err := h.service.ListByServer(serverID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

func (h *ChannelHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r, h.log); !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req channelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	channel, err := h.service.Update(id, req.Name, req.Topic)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
