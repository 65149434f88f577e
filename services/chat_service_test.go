package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"

	"chathub/domain"
	"chathub/errors"
	"chathub/moderation"
	"chathub/repositories"
	"chathub/storage"
)

type chatFixture struct {
	chat        *ChatService
	attachments *AttachmentService
}

func newChatFixture(t *testing.T, bannedWords []string) chatFixture {
	t.Helper()
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	t.Cleanup(func() { database.CleanupDB(badgerDB, blugeWriter) })

	filter, err := moderation.NewContentFilter(bannedWords, '*')
	req.NoError(err)
	messageRepository := repositories.NewMessageRepository(badgerDB, blugeWriter, slog.Default(), nil)
	attachmentRepository := repositories.NewAttachmentRepository(badgerDB)
	return chatFixture{
		chat:        NewChatService(messageRepository, filter, slog.Default()),
		attachments: NewAttachmentService(attachmentRepository, storage.NewDiskStore(t.TempDir())),
	}
}

var alice = domain.Identity{ID: "alice", Username: "Alice"}

func Test_Post_And_List_Messages(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)

	posted, err := f.chat.PostMessage(alice, PostMessageInput{
		ChannelRef: "channel-42",
		Content:    "hello there",
	})
	req.NoError(err)
	req.NotEqual(uuid.Nil, posted.ID)
	req.Equal(alice, posted.Sender)

	listed, cursor, err := f.chat.ListMessages("channel-42", nil)
	req.NoError(err)
	req.Nil(cursor)
	req.Len(listed, 1)
	req.Equal("hello there", listed[0].Content)
}

func Test_Post_Message_Masks_Banned_Words(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, []string{"quux"})

	posted, err := f.chat.PostMessage(alice, PostMessageInput{
		ChannelRef: "channel-42",
		Content:    "what the quux is this",
	})
	req.NoError(err)
	req.Equal("what the **** is this", posted.Content)

	// The stored copy is the masked one.
	listed, _, err := f.chat.ListMessages("channel-42", nil)
	req.NoError(err)
	req.Equal("what the **** is this", listed[0].Content)
}

func Test_Post_Message_Tags_The_Language(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)

	posted, err := f.chat.PostMessage(alice, PostMessageInput{
		ChannelRef: "channel-42",
		Content:    "the quick brown fox jumps over the lazy dog and keeps running through the forest",
	})
	req.NoError(err)
	req.Equal("en", posted.Lang)
}

func Test_Post_Message_Validation(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)

	_, err := f.chat.PostMessage(alice, PostMessageInput{ChannelRef: "channel-42"})
	req.Error(err)
	req.Equal(errors.KindValidation, errors.KindOf(err))

	_, err = f.chat.PostMessage(alice, PostMessageInput{Content: "hello"})
	req.Error(err)
	req.Equal(errors.KindValidation, errors.KindOf(err))

	_, err = f.chat.PostMessage(alice, PostMessageInput{
		ChannelRef:    "channel-42",
		Content:       "hello",
		AttachmentIDs: []string{"not-a-uuid"},
	})
	req.Error(err)
	req.Equal(errors.KindValidation, errors.KindOf(err))
}

func Test_Post_Message_With_Attachment(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)

	attachment, err := f.attachments.Upload([]byte("report contents"), "report.txt", alice)
	req.NoError(err)

	posted, err := f.chat.PostMessage(alice, PostMessageInput{
		ChannelRef:    "channel-42",
		Content:       "see attached",
		AttachmentIDs: []string{attachment.ID.String()},
	})
	req.NoError(err)
	req.Equal([]uuid.UUID{attachment.ID}, posted.AttachmentIDs)

	// Referenced attachments cannot be deleted.
	req.ErrorIs(f.attachments.Delete(attachment.ID), errors.ErrAttachmentInUse)

	_, err = f.chat.PostMessage(alice, PostMessageInput{
		ChannelRef:    "channel-42",
		Content:       "dangling reference",
		AttachmentIDs: []string{uuid.New().String()},
	})
	req.ErrorIs(err, errors.ErrUnknownAttachment)
}

func Test_List_Messages_Of_Unknown_Channel_Is_Empty(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)

	listed, cursor, err := f.chat.ListMessages("never-used", nil)
	req.NoError(err)
	req.Nil(cursor)
	req.Empty(listed)

	hits, err := f.chat.SearchMessages(context.Background(), "never-used", "anything")
	req.NoError(err)
	req.Empty(hits)
}

func Test_Search_Messages_Through_The_Service(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)

	_, err := f.chat.PostMessage(alice, PostMessageInput{ChannelRef: "channel-42", Content: "release is shipped"})
	req.NoError(err)
	_, err = f.chat.PostMessage(alice, PostMessageInput{ChannelRef: "channel-42", Content: "lunch anyone"})
	req.NoError(err)

	hits, err := f.chat.SearchMessages(context.Background(), "channel-42", "release")
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("release is shipped", hits[0].Content)
}
