package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	qport "github.com/yasirimran733/campus-connect/internal/infrastructure/queue/port"
	chat "github.com/yasirimran733/campus-connect/internal/pkg/chat/application/domain"
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/application/task"
	directory "github.com/yasirimran733/campus-connect/internal/repository/port"
)

// fakeChatRepository is an in-memory stand-in that records the order of
// mutating calls so sequencing can be asserted.
type fakeChatRepository struct {
	participants map[string][]string // conversation id -> user ids
	messages     []chat.Message
	nextID       int64
	calls        []string

	saveErr  error
	touchErr error

	touchedAt      time.Time
	touchedConvID  string
	createdDirect  bool
	createdForItem bool
}

func newFakeChatRepository() *fakeChatRepository {
	return &fakeChatRepository{participants: make(map[string][]string)}
}

func (f *fakeChatRepository) FindOrCreateDirect(ctx context.Context, userA, userB string) (*chat.Conversation, bool, error) {
	f.calls = append(f.calls, "find_or_create_direct")
	created := f.createdDirect
	return &chat.Conversation{ID: "direct-conv", ParticipantIDs: []string{userA, userB}}, created, nil
}

func (f *fakeChatRepository) FindOrCreateForItem(ctx context.Context, itemID, userA, userB string) (*chat.Conversation, bool, error) {
	f.calls = append(f.calls, "find_or_create_for_item")
	created := f.createdForItem
	return &chat.Conversation{ID: "item-conv", ItemID: &itemID, ParticipantIDs: []string{userA, userB}}, created, nil
}

func (f *fakeChatRepository) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	ids, ok := f.participants[id]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	return &chat.Conversation{ID: id, ParticipantIDs: ids}, nil
}

func (f *fakeChatRepository) ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	var out []chat.Conversation
	for id, members := range f.participants {
		for _, m := range members {
			if m == userID {
				out = append(out, chat.Conversation{ID: id, ParticipantIDs: members})
			}
		}
	}
	return out, nil
}

func (f *fakeChatRepository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	for _, m := range f.participants[conversationID] {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeChatRepository) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	return f.participants[conversationID], nil
}

func (f *fakeChatRepository) SaveMessage(ctx context.Context, m *chat.Message) error {
	f.calls = append(f.calls, "save_message")
	if f.saveErr != nil {
		return f.saveErr
	}
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, int(f.nextID), time.UTC)
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeChatRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	var out []chat.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeChatRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	f.calls = append(f.calls, "mark_messages_read")
	var n int64
	for i := range f.messages {
		m := &f.messages[i]
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeChatRepository) Touch(ctx context.Context, conversationID string, at time.Time) error {
	f.calls = append(f.calls, "touch")
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touchedConvID = conversationID
	f.touchedAt = at
	return nil
}

func (f *fakeChatRepository) MergeDuplicateConversations(ctx context.Context) (int64, error) {
	return 0, nil
}

// fakeQueueClient counts enqueued tasks by type.
type fakeQueueClient struct {
	enqueued []string
}

func (f *fakeQueueClient) Enqueue(ctx context.Context, t qport.Task, opts ...qport.EnqueueOption) (string, error) {
	f.enqueued = append(f.enqueued, t.Type)
	return "task-id", nil
}

func (f *fakeQueueClient) Close() error { return nil }

// fakeItemDirectory maps item ids to owner ids.
type fakeItemDirectory struct {
	owners map[string]string
}

func (f *fakeItemDirectory) GetItemOwner(ctx context.Context, itemID string) (string, error) {
	owner, ok := f.owners[itemID]
	if !ok {
		return "", directory.ErrItemNotFound
	}
	return owner, nil
}

func TestSendMessagePersistsThenTouches(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	repo.participants["c1"] = []string{"u1", "u2"}
	uc := NewSendMessageUseCase(repo)

	msg, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "c1",
		SenderID:       "u1",
		Content:        "  hello  ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Content != "hello" {
		t.Errorf("Content = %q, want trimmed %q", msg.Content, "hello")
	}
	if msg.ID == 0 {
		t.Error("ID = 0, want store-assigned id")
	}

	want := []string{"save_message", "touch"}
	if len(repo.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", repo.calls, want)
	}
	for i := range want {
		if repo.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", repo.calls, want)
		}
	}
	if !repo.touchedAt.Equal(msg.CreatedAt) {
		t.Errorf("touched at %v, want the message timestamp %v", repo.touchedAt, msg.CreatedAt)
	}
	if repo.touchedConvID != "c1" {
		t.Errorf("touched conversation %q, want c1", repo.touchedConvID)
	}
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	repo.participants["c1"] = []string{"u1", "u2"}
	uc := NewSendMessageUseCase(repo)

	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "c1",
		SenderID:       "intruder",
		Content:        "hi",
	})
	if !errors.Is(err, chat.ErrNotParticipant) {
		t.Fatalf("err = %v, want ErrNotParticipant", err)
	}
	for _, call := range repo.calls {
		if call == "save_message" {
			t.Fatal("message was saved for a non-participant")
		}
	}
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	repo.participants["c1"] = []string{"u1"}
	uc := NewSendMessageUseCase(repo)

	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "c1",
		SenderID:       "u1",
		Content:        "   \n\t ",
	})
	if !errors.Is(err, chat.ErrEmptyContent) {
		t.Fatalf("err = %v, want ErrEmptyContent", err)
	}
	if len(repo.calls) != 0 {
		t.Fatalf("repo touched before validation: %v", repo.calls)
	}
}

func TestSendMessageWrapsStoreFailures(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	repo.participants["c1"] = []string{"u1"}
	repo.saveErr = errors.New("connection reset")
	uc := NewSendMessageUseCase(repo)

	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "c1",
		SenderID:       "u1",
		Content:        "hi",
	})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
}

func TestSendMessageTouchFailureIsFatal(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	repo.participants["c1"] = []string{"u1"}
	repo.touchErr = errors.New("connection reset")
	uc := NewSendMessageUseCase(repo)

	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "c1",
		SenderID:       "u1",
		Content:        "hi",
	})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
}

func TestStartDirectConversationRejectsSelf(t *testing.T) {
	t.Parallel()

	uc := NewStartDirectConversationUseCase(newFakeChatRepository(), nil)

	_, err := uc.Execute(context.Background(), StartDirectConversationInput{
		UserID:      "u1",
		OtherUserID: "u1",
	})
	if !errors.Is(err, chat.ErrSelfConversation) {
		t.Fatalf("err = %v, want ErrSelfConversation", err)
	}
}

func TestStartDirectConversationEnqueuesRepairOnCreate(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	repo.createdDirect = true
	queue := &fakeQueueClient{}
	uc := NewStartDirectConversationUseCase(repo, queue)

	conv, err := uc.Execute(context.Background(), StartDirectConversationInput{
		UserID:      "u1",
		OtherUserID: "u2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.ID == "" {
		t.Fatal("conversation id is empty")
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != task.DedupeConversationsTaskType {
		t.Fatalf("enqueued = %v, want one dedupe repair task", queue.enqueued)
	}
}

func TestStartDirectConversationSkipsRepairWhenExisting(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	queue := &fakeQueueClient{}
	uc := NewStartDirectConversationUseCase(repo, queue)

	if _, err := uc.Execute(context.Background(), StartDirectConversationInput{
		UserID:      "u1",
		OtherUserID: "u2",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue.enqueued) != 0 {
		t.Fatalf("enqueued = %v, want none for an existing conversation", queue.enqueued)
	}
}

func TestStartDirectConversationNilQueueIsSafe(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	repo.createdDirect = true
	uc := NewStartDirectConversationUseCase(repo, nil)

	if _, err := uc.Execute(context.Background(), StartDirectConversationInput{
		UserID:      "u1",
		OtherUserID: "u2",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStartItemConversationResolvesOwner(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	items := &fakeItemDirectory{owners: map[string]string{"item-1": "owner-1"}}
	uc := NewStartItemConversationUseCase(repo, items, nil)

	conv, err := uc.Execute(context.Background(), StartItemConversationInput{
		UserID: "finder-1",
		ItemID: "item-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.ItemID == nil || *conv.ItemID != "item-1" {
		t.Errorf("ItemID = %v, want item-1", conv.ItemID)
	}
}

func TestStartItemConversationRejectsOwnItem(t *testing.T) {
	t.Parallel()

	items := &fakeItemDirectory{owners: map[string]string{"item-1": "u1"}}
	uc := NewStartItemConversationUseCase(newFakeChatRepository(), items, nil)

	_, err := uc.Execute(context.Background(), StartItemConversationInput{
		UserID: "u1",
		ItemID: "item-1",
	})
	if !errors.Is(err, chat.ErrSelfConversation) {
		t.Fatalf("err = %v, want ErrSelfConversation", err)
	}
}

func TestStartItemConversationUnknownItem(t *testing.T) {
	t.Parallel()

	items := &fakeItemDirectory{owners: map[string]string{}}
	uc := NewStartItemConversationUseCase(newFakeChatRepository(), items, nil)

	_, err := uc.Execute(context.Background(), StartItemConversationInput{
		UserID: "u1",
		ItemID: "missing",
	})
	if !errors.Is(err, directory.ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
}

func TestJoinConversationGate(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	repo.participants["c1"] = []string{"u1", "u2"}
	uc := NewJoinConversationUseCase(repo)

	if err := uc.Execute(context.Background(), JoinConversationInput{ConversationID: "c1", UserID: "u1"}); err != nil {
		t.Fatalf("participant join failed: %v", err)
	}

	err := uc.Execute(context.Background(), JoinConversationInput{ConversationID: "c1", UserID: "outsider"})
	if !errors.Is(err, chat.ErrNotParticipant) {
		t.Fatalf("err = %v, want ErrNotParticipant", err)
	}
}

func TestListMessagesRequiresMembership(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	repo.participants["c1"] = []string{"u1", "u2"}
	repo.messages = []chat.Message{
		{ID: 1, ConversationID: "c1", SenderID: "u1", Content: "first"},
		{ID: 2, ConversationID: "c1", SenderID: "u2", Content: "second"},
		{ID: 3, ConversationID: "other", SenderID: "u1", Content: "elsewhere"},
	}
	uc := NewListMessagesUseCase(repo)

	msgs, err := uc.Execute(context.Background(), ListMessagesInput{ConversationID: "c1", RequesterID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}

	_, err = uc.Execute(context.Background(), ListMessagesInput{ConversationID: "c1", RequesterID: "outsider"})
	if !errors.Is(err, chat.ErrNotParticipant) {
		t.Fatalf("err = %v, want ErrNotParticipant", err)
	}
}

func TestMarkReadOnlyFlipsOthersMessages(t *testing.T) {
	t.Parallel()

	repo := newFakeChatRepository()
	repo.participants["c1"] = []string{"u1", "u2"}
	repo.messages = []chat.Message{
		{ID: 1, ConversationID: "c1", SenderID: "u2", Content: "unread"},
		{ID: 2, ConversationID: "c1", SenderID: "u1", Content: "own message"},
		{ID: 3, ConversationID: "c1", SenderID: "u2", Content: "already", IsRead: true},
	}
	uc := NewMarkReadUseCase(repo)

	updated, err := uc.Execute(context.Background(), MarkReadInput{ConversationID: "c1", ReaderID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated = %d, want 1", updated)
	}

	_, err = uc.Execute(context.Background(), MarkReadInput{ConversationID: "c1", ReaderID: "outsider"})
	if !errors.Is(err, chat.ErrNotParticipant) {
		t.Fatalf("err = %v, want ErrNotParticipant", err)
	}
}
