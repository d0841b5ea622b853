// Package chat holds the client side conversation state: the conversation
// list, the active conversation, the guest quota and the submit flow that
// ties them to a Responder.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yordimul/LexiTax-AI/internal/models"
	"golang.org/x/sync/errgroup"
)

// State of the machine. It is Active while a conversation is selected.
type State string

const (
	StateIdle   State = "IDLE"
	StateActive State = "ACTIVE"
)

// TitlePolicy decides when a conversation title is derived from a message.
type TitlePolicy int

const (
	// TitleFirstMessage derives the title once, from the first user message.
	TitleFirstMessage TitlePolicy = iota
	// TitleLatestMessage re-derives the title from every submitted message.
	TitleLatestMessage
)

var (
	ErrEmptyQuery       = errors.New("query is empty")
	ErrRequestPending   = errors.New("a reply is still pending for this conversation")
	ErrConversationGone = errors.New("conversation was removed before the reply arrived")
	ErrClosed           = errors.New("chat session is closed")
)

// Authenticator reports whether the local user holds a credential.
type Authenticator interface {
	IsAuthenticated() bool
}

// Backend is what Sync needs from the API client.
type Backend interface {
	GetConversations(ctx context.Context) ([]models.Conversation, error)
	GetGuestQueryCount(ctx context.Context) (*models.GuestQueryCount, error)
}

// ConversationFetcher loads a single server conversation.
type ConversationFetcher interface {
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
}

// Exchange is the result of a successful SubmitQuery.
type Exchange struct {
	ConversationID string
	User           models.Message
	Assistant      models.Message
	// Background is true when the reply landed in a conversation that was
	// no longer active when it arrived.
	Background bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithTitlePolicy selects how titles are derived. Default TitleFirstMessage.
func WithTitlePolicy(p TitlePolicy) Option {
	return func(m *Machine) { m.titlePolicy = p }
}

// WithGuestLimit overrides the guest query limit.
func WithGuestLimit(limit int) Option {
	return func(m *Machine) { m.quota = newQuota(limit) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// Machine is the local conversation state. All methods are safe for
// concurrent use; SubmitQuery releases the lock while waiting for a reply so
// the optimistic user message is visible in the meantime.
type Machine struct {
	mu          sync.Mutex
	responder   Responder
	auth        Authenticator
	titlePolicy TitlePolicy
	now         func() time.Time

	conversations []*models.Conversation // most recent first
	titled        map[string]bool        // title already derived
	remoteIDs     map[string]string      // local id -> server conversation id
	activeID      string
	quota         Quota
	pending       map[string]context.CancelFunc
	closed        bool
}

// NewMachine creates an Idle machine.
func NewMachine(responder Responder, auth Authenticator, opts ...Option) *Machine {
	m := &Machine{
		responder: responder,
		auth:      auth,
		now:       time.Now,
		quota:     newQuota(GuestQueryLimit),
		titled:    make(map[string]bool),
		remoteIDs: make(map[string]string),
		pending:   make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// --- Transitions ---

// NewConversation creates a conversation with the placeholder title, puts it
// at the top of the list and makes it active.
func (m *Machine) NewConversation() models.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newConversationLocked().Clone()
}

func (m *Machine) newConversationLocked() *models.Conversation {
	now := m.now()
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		Title:     models.DefaultConversationTitle,
		Messages:  []models.Message{},
		IsGuest:   !m.isAuthenticated(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.conversations = append([]*models.Conversation{conv}, m.conversations...)
	m.activeID = conv.ID
	return conv
}

// SelectConversation makes the conversation with id active. Unknown ids
// leave the state untouched and return false.
func (m *Machine) SelectConversation(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findLocked(id) == nil {
		return false
	}
	m.activeID = id
	return true
}

// SubmitQuery runs the submit flow for text and blocks until the reply is
// applied, ctx is cancelled or the machine is reset.
func (m *Machine) SubmitQuery(ctx context.Context, text string) (*Exchange, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	guest := !m.isAuthenticated()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if guest && m.quota.Exhausted() {
		limit := m.quota.Limit
		m.mu.Unlock()
		log.Printf("[Chat] Guest query rejected: limit of %d reached", limit)
		return nil, &GuestLimitError{Limit: limit}
	}
	if _, busy := m.pending[m.activeID]; busy && m.activeID != "" {
		m.mu.Unlock()
		return nil, ErrRequestPending
	}

	conv := m.findLocked(m.activeID)
	if conv == nil {
		conv = m.newConversationLocked()
	}

	userMsg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           models.MessageRoleUser,
		Content:        text,
		CreatedAt:      m.now(),
	}
	conv.Messages = append(conv.Messages, userMsg)
	conv.UpdatedAt = userMsg.CreatedAt
	if guest {
		m.quota.consume()
	}
	m.applyTitleLocked(conv, text)

	reqCtx, cancel := context.WithCancel(ctx)
	m.pending[conv.ID] = cancel
	q := Query{
		LocalID:  conv.ID,
		RemoteID: m.remoteIDs[conv.ID],
		Title:    conv.Title,
		Text:     text,
		Guest:    guest,
	}
	m.mu.Unlock()

	reply, err := m.responder.Respond(reqCtx, q)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, q.LocalID)

	// The reply belongs to the conversation that asked, whatever is shown now.
	owner := m.findLocked(q.LocalID)
	if owner != nil && !guest && reply.ConversationID != "" {
		m.remoteIDs[owner.ID] = reply.ConversationID
	}
	if err != nil {
		log.Printf("ERROR [Chat] Reply for conversation %s failed: %v", q.LocalID, err)
		return nil, err
	}
	if owner == nil {
		return nil, ErrConversationGone
	}

	assistant := models.Message{
		ID:              reply.MessageID,
		ConversationID:  owner.ID,
		Role:            models.MessageRoleAssistant,
		Content:         reply.Content,
		ConfidenceScore: reply.Confidence,
		Sources:         reply.Sources,
		CreatedAt:       reply.CreatedAt,
	}
	if assistant.ID == "" {
		assistant.ID = uuid.NewString()
	}
	if assistant.CreatedAt.IsZero() {
		assistant.CreatedAt = m.now()
	}
	owner.Messages = append(owner.Messages, assistant)
	owner.UpdatedAt = assistant.CreatedAt

	return &Exchange{
		ConversationID: owner.ID,
		User:           userMsg,
		Assistant:      assistant,
		Background:     m.activeID != owner.ID,
	}, nil
}

func (m *Machine) applyTitleLocked(conv *models.Conversation, text string) {
	if m.titlePolicy == TitleFirstMessage && m.titled[conv.ID] {
		return
	}
	conv.Title = models.DeriveTitle(text)
	m.titled[conv.ID] = true
}

// Reset cancels outstanding replies and returns to Idle with no
// conversations and a fresh guest quota. Used on logout.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelPendingLocked()
	m.conversations = nil
	m.titled = make(map[string]bool)
	m.remoteIDs = make(map[string]string)
	m.activeID = ""
	m.quota = newQuota(m.quota.Limit)
}

// Close cancels outstanding replies and rejects further queries.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelPendingLocked()
	m.closed = true
}

func (m *Machine) cancelPendingLocked() {
	for id, cancel := range m.pending {
		cancel()
		delete(m.pending, id)
	}
}

// --- Server synchronisation ---

// Sync reconciles local state with the server: the guest quota always, the
// conversation list when authenticated. Both are fetched concurrently.
func (m *Machine) Sync(ctx context.Context, backend Backend) error {
	authenticated := m.isAuthenticated()

	var (
		count *models.GuestQueryCount
		convs []models.Conversation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := backend.GetGuestQueryCount(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch guest query count: %w", err)
		}
		count = c
		return nil
	})
	if authenticated {
		g.Go(func() error {
			list, err := backend.GetConversations(gctx)
			if err != nil {
				return fmt.Errorf("failed to fetch conversations: %w", err)
			}
			convs = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if drift := m.quota.reconcile(count.QueriesUsed); drift != 0 {
		log.Printf("WARN [Chat] Guest quota drift: local count differed from server by %d (server used=%d)", drift, count.QueriesUsed)
	}
	if authenticated {
		m.mergeLocked(convs)
	}
	return nil
}

// mergeLocked appends server conversations not yet known locally, keeping
// server order.
func (m *Machine) mergeLocked(convs []models.Conversation) {
	known := make(map[string]bool, len(m.remoteIDs))
	for _, remote := range m.remoteIDs {
		known[remote] = true
	}
	added := 0
	for i := range convs {
		c := convs[i].Clone()
		if c.ID == "" || known[c.ID] || m.findLocked(c.ID) != nil {
			continue
		}
		if c.Messages == nil {
			c.Messages = []models.Message{}
		}
		if c.Title == "" {
			c.Title = models.DefaultConversationTitle
		}
		m.conversations = append(m.conversations, &c)
		m.remoteIDs[c.ID] = c.ID
		m.titled[c.ID] = c.Title != models.DefaultConversationTitle
		added++
	}
	if added > 0 {
		log.Printf("[Chat] Loaded %d conversations from server", added)
	}
}

// LoadConversation replaces the local messages of a server backed
// conversation with the server's copy. Conversations with a reply pending
// are left alone.
func (m *Machine) LoadConversation(ctx context.Context, api ConversationFetcher, id string) error {
	m.mu.Lock()
	remoteID, ok := m.remoteIDs[id]
	_, busy := m.pending[id]
	m.mu.Unlock()
	if !ok || busy {
		return nil
	}

	conv, err := api.GetConversation(ctx, remoteID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	local := m.findLocked(id)
	if local == nil {
		return nil
	}
	if _, busy := m.pending[id]; busy {
		return nil
	}
	local.Messages = append([]models.Message{}, conv.Messages...)
	if conv.Title != "" {
		local.Title = conv.Title
		m.titled[id] = conv.Title != models.DefaultConversationTitle
	}
	if !conv.UpdatedAt.IsZero() {
		local.UpdatedAt = conv.UpdatedAt
	}
	return nil
}

// --- Accessors ---

// State reports whether a conversation is active.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID == "" {
		return StateIdle
	}
	return StateActive
}

// Conversations returns copies of all conversations, most recent first.
func (m *Machine) Conversations() []models.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		out = append(out, c.Clone())
	}
	return out
}

// ActiveConversation returns a copy of the active conversation.
func (m *Machine) ActiveConversation() (models.Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.findLocked(m.activeID)
	if c == nil {
		return models.Conversation{}, false
	}
	return c.Clone(), true
}

// Messages returns the visible message buffer: the active conversation's
// messages, or nil when Idle.
func (m *Machine) Messages() []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.findLocked(m.activeID)
	if c == nil {
		return nil
	}
	return append([]models.Message{}, c.Messages...)
}

// Quota returns the guest quota state.
func (m *Machine) Quota() Quota {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quota
}

// Pending reports whether a reply is outstanding for conversation id.
func (m *Machine) Pending(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[id]
	return ok
}

func (m *Machine) isAuthenticated() bool {
	return m.auth != nil && m.auth.IsAuthenticated()
}

func (m *Machine) findLocked(id string) *models.Conversation {
	if id == "" {
		return nil
	}
	for _, c := range m.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}
