package application

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/ports"
	"github.com/oklog/ulid/v2"
)

// clientKeys issues lexicographically sortable idempotency tokens for
// outgoing messages from a monotonic entropy source.
var clientKeys = struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}{entropy: ulid.Monotonic(rand.Reader, 0)}

func newClientKey(t time.Time) string {
	clientKeys.mu.Lock()
	defer clientKeys.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t.UTC()), clientKeys.entropy).String()
}

// Update is the snapshot delivered to subscribers after every state
// transition. Slices are copies; consumers own them.
type Update struct {
	Chats      []domain.Chat
	OpenChatID string
	Messages   []domain.Message
}

type ChatStoreOptions struct {
	Sender ports.MessageSender
	Clock  ports.Clock
	Logger *slog.Logger
}

// ChatStore is the in-memory source of truth for the chat list and the
// currently open conversation. It is fed from two directions, local
// optimistic sends and inbound realtime events, and keeps one invariant at
// all times: the chat list is totally ordered, descending, by latest
// message time (falling back to the chat's last-updated timestamp), with
// ascending chat id breaking ties so equal timestamps never flicker.
type ChatStore struct {
	sender ports.MessageSender
	clock  ports.Clock
	log    *slog.Logger

	mu         sync.RWMutex
	chats      []domain.Chat
	openChatID string
	messages   []domain.Message
	subs       map[int]chan Update
	nextSub    int

	sends sync.WaitGroup
}

func NewChatStore(opts ChatStoreOptions) *ChatStore {
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &ChatStore{
		sender: opts.Sender,
		clock:  opts.Clock,
		log:    opts.Logger,
		subs:   make(map[int]chan Update),
	}
}

// ReplaceChats swaps the whole chat list, typically after a chat-list
// fetch. The server's ordering is not trusted; the list is re-sorted.
func (s *ChatStore) ReplaceChats(chats []domain.Chat) {
	s.mu.Lock()
	s.chats = append([]domain.Chat(nil), chats...)
	s.sortLocked()
	s.mu.Unlock()
	s.notify()
}

// UpsertChat inserts the chat or overwrites the entry with the same id.
func (s *ChatStore) UpsertChat(chat domain.Chat) {
	s.mu.Lock()
	replaced := false
	for i := range s.chats {
		if s.chats[i].ID == chat.ID {
			s.chats[i] = chat
			replaced = true
			break
		}
	}
	if !replaced {
		s.chats = append(s.chats, chat)
	}
	s.sortLocked()
	s.mu.Unlock()
	s.notify()
}

// UpdateLatestMessage patches a chat's summary fields and re-sorts. A
// chat id that is not present is a no-op.
func (s *ChatStore) UpdateLatestMessage(chatID, content string, at time.Time) {
	s.mu.Lock()
	if !s.updateLatestLocked(chatID, content, at) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.notify()
}

// OpenChat switches the open conversation. Stale messages from the
// previous conversation are dropped before the new history is installed so
// nothing leaks across conversations.
func (s *ChatStore) OpenChat(chatID string, history []domain.Message) {
	s.mu.Lock()
	s.messages = nil
	s.openChatID = chatID
	s.messages = append(s.messages, history...)
	s.mu.Unlock()
	s.notify()
}

// CloseChat leaves the open conversation.
func (s *ChatStore) CloseChat() {
	s.mu.Lock()
	s.openChatID = ""
	s.messages = nil
	s.mu.Unlock()
	s.notify()
}

// AppendMessage appends to the open conversation. Messages for any other
// conversation are ignored; their chat summary is still maintained by the
// event path.
func (s *ChatStore) AppendMessage(msg domain.Message) {
	s.mu.Lock()
	if s.openChatID == "" || msg.ChatID != s.openChatID {
		s.mu.Unlock()
		return
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify()
}

func (s *ChatStore) OpenChatID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openChatID
}

func (s *ChatStore) Chats() []domain.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Chat(nil), s.chats...)
}

func (s *ChatStore) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Message(nil), s.messages...)
}

// Send runs the two-step optimistic protocol: the message is appended to
// the open conversation and the chat summary updated synchronously, before
// any network round trip; persistence then happens in the background. A
// persistence failure is logged, never rolled back.
func (s *ChatStore) Send(ctx context.Context, msg domain.Message) (domain.Message, error) {
	s.mu.Lock()
	if msg.ChatID == "" {
		msg.ChatID = s.openChatID
	}
	if msg.ChatID == "" {
		s.mu.Unlock()
		return domain.Message{}, domain.ErrNoOpenChat
	}
	now := s.clock.Now()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	msg.ClientKey = newClientKey(now)

	if msg.ChatID == s.openChatID {
		s.messages = append(s.messages, msg)
	}
	s.updateLatestLocked(msg.ChatID, msg.Content, msg.CreatedAt)
	s.mu.Unlock()
	s.notify()

	s.sends.Add(1)
	go func() {
		defer s.sends.Done()
		if err := s.sender.SendMessage(ctx, msg); err != nil {
			s.log.Warn("message persistence failed, keeping optimistic copy",
				"chat_id", msg.ChatID, "client_key", msg.ClientKey, "err", err)
		}
	}()

	return msg, nil
}

// Apply folds one inbound realtime event into local state. Events must be
// applied in arrival order; Run does that from the transport channel.
func (s *ChatStore) Apply(ev domain.RealtimeEvent) {
	switch ev.Type {
	case domain.EventTypeNewMessage:
		s.mu.Lock()
		if s.openChatID != "" && ev.ChatID == s.openChatID {
			s.messages = append(s.messages, ev.Message())
		}
		s.updateLatestLocked(ev.ChatID, ev.Content, ev.CreatedAt)
		s.mu.Unlock()
		s.notify()
	default:
		s.log.Debug("ignoring realtime event", "type", ev.Type)
	}
}

// Run consumes the transport's event channel until it closes or ctx ends.
func (s *ChatStore) Run(ctx context.Context, events <-chan domain.RealtimeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Apply(ev)
		}
	}
}

// Subscribe registers a consumer for state snapshots. Delivery is
// best-effort: a slow consumer misses intermediate snapshots, never the
// ordering invariant. The returned func unsubscribes.
func (s *ChatStore) Subscribe() (<-chan Update, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Update, 16)
	s.subs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
		s.mu.Unlock()
	}
}

// Close waits for in-flight background sends and closes all subscriptions.
func (s *ChatStore) Close() {
	s.sends.Wait()

	s.mu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()
}

func (s *ChatStore) updateLatestLocked(chatID, content string, at time.Time) bool {
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			s.chats[i].LatestMessageContent = content
			s.chats[i].LatestMessageTime = at
			s.sortLocked()
			return true
		}
	}
	return false
}

func (s *ChatStore) sortLocked() {
	sort.SliceStable(s.chats, func(i, j int) bool {
		ti, tj := s.chats[i].SortTime(), s.chats[j].SortTime()
		if ti.Equal(tj) {
			return s.chats[i].ID < s.chats[j].ID
		}
		return ti.After(tj)
	})
}

func (s *ChatStore) notify() {
	s.mu.RLock()
	update := Update{
		Chats:      append([]domain.Chat(nil), s.chats...),
		OpenChatID: s.openChatID,
		Messages:   append([]domain.Message(nil), s.messages...),
	}
	subs := make([]chan Update, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- update:
		default:
		}
	}
}
