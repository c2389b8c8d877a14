package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PabloGalante/englishmaster/internal/app/messages"
	"github.com/PabloGalante/englishmaster/internal/app/sessions"
	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

// ApologyText replaces the assistant reply when generation fails.
const ApologyText = "Oops! Sepertinya ada masalah koneksi. Coba lagi ya."

// Service holds the stateless chat operations shared by the chat controller
// and the HTTP API.
type Service struct {
	tutor     domain.Tutor
	directory *sessions.Directory
	log       *messages.Log
	now       func() time.Time
}

func NewService(
	tutor domain.Tutor,
	directory *sessions.Directory,
	log *messages.Log,
) *Service {
	return &Service{
		tutor:     tutor,
		directory: directory,
		log:       log,
		now:       time.Now,
	}
}

// stamp returns the current time at storage precision.
func (s *Service) stamp() time.Time {
	return s.now().Truncate(time.Millisecond)
}

func (s *Service) ListSessions(ctx context.Context) []*domain.Session {
	return s.directory.List(ctx)
}

func (s *Service) History(ctx context.Context, id domain.SessionID) []*domain.Message {
	return s.log.Load(ctx, id)
}

func (s *Service) DeleteSession(ctx context.Context, id domain.SessionID) error {
	return s.directory.Delete(ctx, id)
}

// Wait blocks until every pending log append has finished.
func (s *Service) Wait() {
	s.log.Wait()
}

// PostUserMessage validates text, appends it to the session log and, for the
// first message of a session, records the session and returns it.
func (s *Service) PostUserMessage(ctx context.Context, id domain.SessionID, text string, first bool) (*domain.Message, *domain.Session, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, domain.ErrEmptyInput
	}

	msg := &domain.Message{
		ID:        domain.NewMessageID(),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: s.stamp(),
	}
	s.log.Append(ctx, id, msg)

	var session *domain.Session
	if first {
		session = s.directory.RecordFirstMessage(ctx, id, text)
	}
	return msg, session, nil
}

// Reply asks the tutor for a translation of text and appends the assistant
// message to the log. A failed generation yields the apology message; the
// returned message is never nil. after is the user message timestamp.
func (s *Service) Reply(ctx context.Context, id domain.SessionID, text string, style domain.Style, after time.Time) *domain.Message {
	log := observability.LoggerFromContext(ctx).With("style", style)

	msg := &domain.Message{
		ID:   domain.NewMessageID(),
		Role: domain.RoleAssistant,
	}

	res, err := s.tutor.Translate(ctx, text, style)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error("translation failed", "error", err)
		}
		msg.Content = ApologyText
	} else {
		st := style
		msg.Content = res.TranslatedText
		msg.Translation = res
		msg.Style = &st
	}

	// Keep the reply strictly after the user message at storage precision.
	msg.Timestamp = s.stamp()
	if !msg.Timestamp.After(after) {
		msg.Timestamp = after.Add(time.Millisecond)
	}

	s.log.Append(ctx, id, msg)
	return msg
}

type SendMessageInput struct {
	SessionID domain.SessionID
	Text      string
	Style     domain.Style
}

type SendMessageOutput struct {
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
	// Session is set when this was the session's first message.
	Session *domain.Session
}

// SendMessage runs a whole exchange without any local state: a missing
// session record means this is the first message.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, domain.ErrEmptyInput
	}
	if !in.Style.Valid() {
		in.Style = domain.StyleCasual
	}

	ctx = observability.WithSessionID(ctx, string(in.SessionID))
	log := observability.LoggerFromContext(ctx)
	log.Info("sending message", "style", in.Style)

	first := s.directory.Get(ctx, in.SessionID) == nil

	userMsg, session, err := s.PostUserMessage(ctx, in.SessionID, in.Text, first)
	if err != nil {
		return nil, err
	}

	out := &SendMessageOutput{UserMessage: userMsg, Session: session}
	out.AssistantMessage = s.Reply(ctx, in.SessionID, in.Text, in.Style, userMsg.Timestamp)

	log.Info("send message completed", "translated", out.AssistantMessage.Translation != nil)
	return out, nil
}
