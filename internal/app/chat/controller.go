// Package chat holds the interactive chat state: the active session, its
// in-memory message list and the send/switch/delete flow around them.
package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/PabloGalante/englishmaster/internal/app/conversation"
	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

type State int

const (
	Uninitialized State = iota
	LoadingHistory
	Ready
	Sending
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case LoadingHistory:
		return "loading_history"
	case Ready:
		return "ready"
	case Sending:
		return "sending"
	default:
		return "unknown"
	}
}

// token identifies the context an async operation was started in. Results
// are applied locally only while the token is still current.
type token struct {
	session domain.SessionID
	epoch   uint64
}

// Controller is safe for concurrent use. Its lock is never held across a
// remote call.
type Controller struct {
	svc    *conversation.Service
	active domain.ActiveSessionStore

	mu       sync.Mutex
	state    State
	loading  bool
	sending  bool
	epoch    uint64
	current  domain.SessionID
	messages []*domain.Message
	sessions []*domain.Session
}

func NewController(svc *conversation.Service, active domain.ActiveSessionStore) *Controller {
	return &Controller{
		svc:    svc,
		active: active,
		state:  Uninitialized,
	}
}

// Start resolves the active session (minting one if none was saved) and loads
// its history and the session list.
func (c *Controller) Start(ctx context.Context) {
	log := observability.LoggerFromContext(ctx)

	id, err := c.active.Load()
	if err != nil {
		log.Error("failed to load active session", "error", err)
	}
	if id == "" {
		id = domain.NewSessionID()
		c.saveActive(ctx, id)
		log.Info("minted new session", "session_id", id)
	}

	c.load(ctx, id)
	c.RefreshSessions(ctx)
}

// SelectSession makes id the active session and loads its history.
func (c *Controller) SelectSession(ctx context.Context, id domain.SessionID) {
	c.saveActive(ctx, id)
	c.load(ctx, id)
}

// StartNewChat mints a fresh session and clears the list right away. Pending
// writes of the previous session are not awaited.
func (c *Controller) StartNewChat(ctx context.Context) domain.SessionID {
	id := domain.NewSessionID()
	c.saveActive(ctx, id)

	c.mu.Lock()
	c.switchTo(id)
	// A fresh id has no stored history.
	c.loading = false
	c.state = c.readyState()
	c.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("started new chat", "session_id", id)
	return id
}

// DeleteSession removes a session. Deleting the active one starts a new chat;
// otherwise only the session list is refreshed. Both happen even when a
// store delete failed, and that failure is returned.
func (c *Controller) DeleteSession(ctx context.Context, id domain.SessionID) error {
	err := c.svc.DeleteSession(ctx, id)

	if c.ActiveSessionID() == id {
		c.StartNewChat(ctx)
	}
	c.RefreshSessions(ctx)
	return err
}

// Send posts text in the active session and waits for the reply. Blank input,
// a send already in flight and a session whose history is still loading are
// rejected without touching any state.
func (c *Controller) Send(ctx context.Context, text string, style domain.Style) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyInput
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return domain.ErrSendInFlight
	}
	if c.loading || c.state == Uninitialized {
		c.mu.Unlock()
		return domain.ErrNotReady
	}
	c.sending = true
	c.state = c.readyState()
	tok := c.token()
	first := len(c.messages) == 0
	c.mu.Unlock()

	ctx = observability.WithSessionID(ctx, string(tok.session))
	defer c.finishSend()

	userMsg, session, err := c.svc.PostUserMessage(ctx, tok.session, text, first)
	if err != nil {
		return err
	}
	c.applyIfCurrent(ctx, tok, userMsg)
	if session != nil {
		c.RefreshSessions(ctx)
	}

	reply := c.svc.Reply(ctx, tok.session, text, style, userMsg.Timestamp)
	c.applyIfCurrent(ctx, tok, reply)
	return nil
}

// RefreshSessions reloads the cached session list.
func (c *Controller) RefreshSessions(ctx context.Context) []*domain.Session {
	list := c.svc.ListSessions(ctx)

	c.mu.Lock()
	c.sessions = list
	c.mu.Unlock()
	return list
}

func (c *Controller) Sessions() []*domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*domain.Session(nil), c.sessions...)
}

func (c *Controller) Messages() []*domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*domain.Message(nil), c.messages...)
}

func (c *Controller) ActiveSessionID() domain.SessionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every pending log append has finished.
func (c *Controller) Wait() {
	c.svc.Wait()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (c *Controller) load(ctx context.Context, id domain.SessionID) {
	c.mu.Lock()
	c.switchTo(id)
	tok := c.token()
	c.mu.Unlock()

	history := c.svc.History(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token() != tok {
		return
	}
	c.messages = history
	c.loading = false
	c.state = c.readyState()
}

// switchTo resets the local view to id. Caller must hold c.mu.
func (c *Controller) switchTo(id domain.SessionID) {
	c.epoch++
	c.current = id
	c.messages = []*domain.Message{}
	c.loading = true
	c.state = LoadingHistory
}

// Caller must hold c.mu.
func (c *Controller) token() token {
	return token{session: c.current, epoch: c.epoch}
}

// Caller must hold c.mu.
func (c *Controller) readyState() State {
	switch {
	case c.loading:
		return LoadingHistory
	case c.sending:
		return Sending
	default:
		return Ready
	}
}

func (c *Controller) applyIfCurrent(ctx context.Context, tok token, msg *domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token() != tok {
		observability.LoggerFromContext(ctx).Info("discarding stale message", "message_id", msg.ID, "role", msg.Role)
		return
	}
	c.messages = append(c.messages, msg)
}

func (c *Controller) finishSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	c.state = c.readyState()
}

func (c *Controller) saveActive(ctx context.Context, id domain.SessionID) {
	if err := c.active.Save(id); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to save active session", "session_id", id, "error", err)
	}
}
