package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"chathub/auth"
	"chathub/domain"
	"chathub/errors"
	"chathub/observability"
	"chathub/services"
)

// NewRouter assembles the full route table. The auth middleware only
// resolves identities; each handler decides whether one is required.
func NewRouter(
	log *slog.Logger,
	tokens auth.Tokens,
	categories services.ICategoryService,
	servers services.IServerService,
	channels services.IChannelService,
	chat services.IChatService,
	attachments services.IAttachmentService,
	monitor *observability.Monitor,
) http.Handler {
	categoryHandler := &CategoryHandler{service: categories, log: log}
	serverHandler := &ServerHandler{service: servers, log: log}
	membershipHandler := &MembershipHandler{service: servers, log: log}
	channelHandler := &ChannelHandler{service: channels, log: log}
	messageHandler := &MessageHandler{chat: chat, attachments: attachments, log: log}
	attachmentHandler := &AttachmentHandler{service: attachments, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(tokens.Middleware)

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", categoryHandler.List)
		r.Post("/", categoryHandler.Create)
		r.Get("/{id}", categoryHandler.Get)
		r.Put("/{id}", categoryHandler.Update)
		r.Patch("/{id}", categoryHandler.Update)
		r.Delete("/{id}", categoryHandler.Delete)
	})

	r.Route("/servers", func(r chi.Router) {
		r.Get("/", serverHandler.List)
		r.Post("/", serverHandler.Create)
		r.Get("/{id}", serverHandler.Get)
		r.Put("/{id}", serverHandler.Put)
		r.Patch("/{id}", serverHandler.Patch)
		r.Delete("/{id}", serverHandler.Delete)

		r.Post("/{id}/members", membershipHandler.Join)
		r.Delete("/{id}/members", membershipHandler.Leave)
		r.Get("/{id}/members/me", membershipHandler.Me)

		r.Get("/{id}/channels", channelHandler.ListByServer)
		r.Post("/{id}/channels", channelHandler.Create)
	})

	r.Route("/channels", func(r chi.Router) {
		r.Get("/{id}", channelHandler.Get)
		r.Put("/{id}", channelHandler.Update)
		r.Patch("/{id}", channelHandler.Update)
		r.Delete("/{id}", channelHandler.Delete)
	})

	r.Route("/conversations/{channelRef}/messages", func(r chi.Router) {
		r.Get("/", messageHandler.List)
		r.Post("/", messageHandler.Post)
	})

	r.Route("/attachments", func(r chi.Router) {
		r.Post("/", attachmentHandler.Upload)
		r.Get("/{id}/content", attachmentHandler.Content)
		r.Delete("/{id}", attachmentHandler.Delete)
	})

	if monitor != nil {
		r.Get("/debug/stats", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, monitor.Snapshot())
		})
	}

	return r
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.Wrap(errors.KindValidation, err, "malformed id")
	}
	return id, nil
}

// requireIdentity rejects the request with 401 when no identity was
// resolved by the middleware.
func requireIdentity(w http.ResponseWriter, r *http.Request, log *slog.Logger) (domain.Identity, bool) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, log, errors.ErrUnauthenticated)
		return domain.Identity{}, false
	}
	return identity, true
}
