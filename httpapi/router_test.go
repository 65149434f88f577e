package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"

	"chathub/auth"
	"chathub/domain"
	"chathub/moderation"
	"chathub/repositories"
	"chathub/services"
	"chathub/storage"
)

type testAPI struct {
	handler http.Handler
	tokens  auth.Tokens
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	t.Cleanup(func() { database.CleanupDB(badgerDB, blugeWriter) })

	log := slog.Default()
	categoryRepository := repositories.NewCategoryRepository(badgerDB)
	serverRepository := repositories.NewServerRepository(badgerDB, log)
	channelRepository := repositories.NewChannelRepository(badgerDB)
	messageRepository := repositories.NewMessageRepository(badgerDB, blugeWriter, log, nil)
	attachmentRepository := repositories.NewAttachmentRepository(badgerDB)

	filter, err := moderation.NewContentFilter([]string{"quux"}, '*')
	req.NoError(err)
	tokens := auth.NewTokens("a-local-test-secret", time.Hour)

	handler := NewRouter(
		log,
		tokens,
		services.NewCategoryService(categoryRepository),
		services.NewServerService(serverRepository, categoryRepository, log),
		services.NewChannelService(channelRepository),
		services.NewChatService(messageRepository, filter, log),
		services.NewAttachmentService(attachmentRepository, storage.NewDiskStore(t.TempDir())),
		nil,
	)
	return testAPI{handler: handler, tokens: tokens}
}

func (a testAPI) do(t *testing.T, method, path string, body any, identity *domain.Identity) *httptest.ResponseRecorder {
	t.Helper()
	req := require.New(t)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		req.NoError(err)
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	if identity != nil {
		token, err := a.tokens.Generate(*identity)
		req.NoError(err)
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	a.handler.ServeHTTP(recorder, request)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&v))
	return v
}

var (
	aliceID = domain.Identity{ID: "alice", Username: "Alice"}
	bobID   = domain.Identity{ID: "bob", Username: "Bob"}
)

func Test_Category_Endpoints(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t)

	res := api.do(t, http.MethodPost, "/categories/", map[string]string{
		"name": "gaming", "description": "tournaments and lan parties",
	}, nil)
	req.Equal(http.StatusCreated, res.Code)
	created := decode[domain.Category](t, res)
	req.Equal("gaming", created.Name)
	req.Equal("tournaments and lan parties", created.Description)

	res = api.do(t, http.MethodPost, "/categories/", map[string]string{"name": "gaming"}, nil)
	req.Equal(http.StatusConflict, res.Code)

	res = api.do(t, http.MethodPost, "/categories/", map[string]string{"name": ""}, nil)
	req.Equal(http.StatusBadRequest, res.Code)

	res = api.do(t, http.MethodGet, "/categories/", nil, nil)
	req.Equal(http.StatusOK, res.Code)
	listed := decode[[]domain.Category](t, res)
	req.Len(listed, 1)

	res = api.do(t, http.MethodPatch, "/categories/"+created.ID.String(), map[string]string{"name": "esports"}, nil)
	req.Equal(http.StatusOK, res.Code)

	res = api.do(t, http.MethodDelete, "/categories/"+created.ID.String(), nil, nil)
	req.Equal(http.StatusNoContent, res.Code)

	res = api.do(t, http.MethodGet, "/categories/"+created.ID.String(), nil, nil)
	req.Equal(http.StatusNotFound, res.Code)
}

func Test_Server_Lifecycle_Over_HTTP(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t)

	res := api.do(t, http.MethodPost, "/categories/", map[string]string{"name": "gaming"}, nil)
	req.Equal(http.StatusCreated, res.Code)
	category := decode[domain.Category](t, res)

	// Creation requires authentication.
	payload := map[string]string{"name": "quake fans", "category_id": category.ID.String()}
	res = api.do(t, http.MethodPost, "/servers/", payload, nil)
	req.Equal(http.StatusUnauthorized, res.Code)

	res = api.do(t, http.MethodPost, "/servers/", payload, &aliceID)
	req.Equal(http.StatusCreated, res.Code)
	server := decode[domain.Server](t, res)
	req.Equal("alice", server.OwnerID)

	// Partial update keeps untouched fields; non-owners are rejected.
	res = api.do(t, http.MethodPatch, "/servers/"+server.ID.String(), map[string]string{"description": "frag fest"}, &bobID)
	req.Equal(http.StatusForbidden, res.Code)
	res = api.do(t, http.MethodPatch, "/servers/"+server.ID.String(), map[string]string{"description": "frag fest"}, &aliceID)
	req.Equal(http.StatusOK, res.Code)
	updated := decode[domain.Server](t, res)
	req.Equal("quake fans", updated.Name)
	req.Equal("frag fest", updated.Description)

	// Full update requires name and category.
	res = api.do(t, http.MethodPut, "/servers/"+server.ID.String(), map[string]string{"name": "renamed"}, &aliceID)
	req.Equal(http.StatusBadRequest, res.Code)

	res = api.do(t, http.MethodDelete, "/servers/"+server.ID.String(), nil, &bobID)
	req.Equal(http.StatusForbidden, res.Code)
	res = api.do(t, http.MethodDelete, "/servers/"+server.ID.String(), nil, &aliceID)
	req.Equal(http.StatusNoContent, res.Code)
	res = api.do(t, http.MethodGet, "/servers/"+server.ID.String(), nil, nil)
	req.Equal(http.StatusNotFound, res.Code)
}

func Test_Server_Listing_Params(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t)

	res := api.do(t, http.MethodPost, "/categories/", map[string]string{"name": "gaming"}, nil)
	category := decode[domain.Category](t, res)

	var serverIDs []string
	for i := 0; i < 3; i++ {
		res = api.do(t, http.MethodPost, "/servers/", map[string]string{
			"name":        fmt.Sprintf("server %d", i),
			"category_id": category.ID.String(),
		}, &aliceID)
		req.Equal(http.StatusCreated, res.Code)
		serverIDs = append(serverIDs, decode[domain.Server](t, res).ID.String())
	}
	res = api.do(t, http.MethodPost, "/servers/"+serverIDs[0]+"/members", nil, &bobID)
	req.Equal(http.StatusOK, res.Code)

	type row struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		NumMembers *int   `json:"num_members"`
	}

	res = api.do(t, http.MethodGet, "/servers/?category=gaming&qty=2", nil, nil)
	req.Equal(http.StatusOK, res.Code)
	rows := decode[[]row](t, res)
	req.Len(rows, 2)
	req.Nil(rows[0].NumMembers)

	res = api.do(t, http.MethodGet, "/servers/?with_num_members=true", nil, nil)
	rows = decode[[]row](t, res)
	req.Len(rows, 3)
	req.Equal(2, *rows[0].NumMembers)
	req.Equal(1, *rows[1].NumMembers)

	res = api.do(t, http.MethodGet, "/servers/?category=gaming&with_num_members=true&qty=2", nil, nil)
	rows = decode[[]row](t, res)
	req.Len(rows, 2)
	req.Equal(2, *rows[0].NumMembers)
	req.Equal(1, *rows[1].NumMembers)

	// The raw body must not mention num_members when not requested.
	res = api.do(t, http.MethodGet, "/servers/", nil, nil)
	req.NotContains(res.Body.String(), "num_members")

	res = api.do(t, http.MethodGet, "/servers/?by_user=true", nil, &bobID)
	rows = decode[[]row](t, res)
	req.Len(rows, 1)
	req.Equal(serverIDs[0], rows[0].ID)

	res = api.do(t, http.MethodGet, "/servers/?by_user=true", nil, nil)
	req.Equal(http.StatusUnauthorized, res.Code)

	res = api.do(t, http.MethodGet, "/servers/?by_serverid="+serverIDs[1], nil, nil)
	rows = decode[[]row](t, res)
	req.Len(rows, 1)

	res = api.do(t, http.MethodGet, "/servers/?by_serverid=not-a-uuid", nil, nil)
	req.Equal(http.StatusBadRequest, res.Code)

	res = api.do(t, http.MethodGet, "/servers/?qty=0", nil, nil)
	req.Equal(http.StatusBadRequest, res.Code)
}

func Test_Membership_Endpoints(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t)

	res := api.do(t, http.MethodPost, "/categories/", map[string]string{"name": "gaming"}, nil)
	category := decode[domain.Category](t, res)
	res = api.do(t, http.MethodPost, "/servers/", map[string]string{
		"name": "quake fans", "category_id": category.ID.String(),
	}, &aliceID)
	server := decode[domain.Server](t, res)
	base := "/servers/" + server.ID.String() + "/members"

	res = api.do(t, http.MethodPost, base, nil, &bobID)
	req.Equal(http.StatusOK, res.Code)
	req.Equal("user joined server successfully", decode[map[string]string](t, res)["message"])

	res = api.do(t, http.MethodPost, base, nil, &bobID)
	req.Equal(http.StatusConflict, res.Code)

	res = api.do(t, http.MethodGet, base+"/me", nil, &bobID)
	req.Equal(http.StatusOK, res.Code)
	req.True(decode[map[string]bool](t, res)["is_member"])

	res = api.do(t, http.MethodDelete, base, nil, &bobID)
	req.Equal(http.StatusOK, res.Code)
	req.Equal("user removed from server", decode[map[string]string](t, res)["message"])

	res = api.do(t, http.MethodDelete, base, nil, &bobID)
	req.Equal(http.StatusNotFound, res.Code)

	// The owner is a member and cannot leave.
	res = api.do(t, http.MethodGet, base+"/me", nil, &aliceID)
	req.True(decode[map[string]bool](t, res)["is_member"])
	res = api.do(t, http.MethodDelete, base, nil, &aliceID)
	req.Equal(http.StatusConflict, res.Code)
}

func Test_Message_Endpoints(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t)
	base := "/conversations/channel-42/messages/"

	res := api.do(t, http.MethodPost, base, map[string]string{"content": "hello there"}, nil)
	req.Equal(http.StatusUnauthorized, res.Code)

	res = api.do(t, http.MethodPost, base, map[string]string{"content": "what the quux"}, &aliceID)
	req.Equal(http.StatusCreated, res.Code)
	posted := decode[messageResponse](t, res)
	req.Equal("what the ****", posted.Content)
	req.Equal("Alice", posted.Sender)

	res = api.do(t, http.MethodGet, base, nil, nil)
	req.Equal(http.StatusOK, res.Code)
	listed := decode[listMessagesResponse](t, res)
	req.Len(listed.Messages, 1)
	req.Nil(listed.NextCursor)

	res = api.do(t, http.MethodGet, base+"?search=quux", nil, nil)
	req.Equal(http.StatusOK, res.Code)

	// A channel without a conversation yields an empty thread.
	res = api.do(t, http.MethodGet, "/conversations/unused/messages/", nil, nil)
	req.Equal(http.StatusOK, res.Code)
	req.Empty(decode[listMessagesResponse](t, res).Messages)
}

func Test_Attachment_Endpoints(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "notes.txt")
	req.NoError(err)
	_, err = part.Write([]byte("attachment payload"))
	req.NoError(err)
	req.NoError(form.Close())

	request := httptest.NewRequest(http.MethodPost, "/attachments/", &body)
	request.Header.Set("Content-Type", form.FormDataContentType())
	token, err := api.tokens.Generate(aliceID)
	req.NoError(err)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	api.handler.ServeHTTP(recorder, request)
	req.Equal(http.StatusCreated, recorder.Code)
	attachment := decode[domain.Attachment](t, recorder)
	req.Equal("alice", attachment.SenderID)

	res := api.do(t, http.MethodGet, "/attachments/"+attachment.ID.String()+"/content", nil, nil)
	req.Equal(http.StatusOK, res.Code)
	req.Equal("attachment payload", res.Body.String())

	// Reference it from a message, then the delete is refused.
	res = api.do(t, http.MethodPost, "/conversations/channel-42/messages/", map[string]any{
		"content":        "see attached",
		"attachment_ids": []string{attachment.ID.String()},
	}, &aliceID)
	req.Equal(http.StatusCreated, res.Code)
	posted := decode[messageResponse](t, res)
	req.Len(posted.Attachments, 1)
	req.Equal(attachment.ID, posted.Attachments[0].ID)

	res = api.do(t, http.MethodDelete, "/attachments/"+attachment.ID.String(), nil, &aliceID)
	req.Equal(http.StatusConflict, res.Code)
}

func Test_Invalid_Token_Is_Rejected(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t)

	request := httptest.NewRequest(http.MethodGet, "/categories/", nil)
	request.Header.Set("Authorization", "Bearer garbage")
	recorder := httptest.NewRecorder()
	api.handler.ServeHTTP(recorder, request)
	req.Equal(http.StatusUnauthorized, recorder.Code)
}
