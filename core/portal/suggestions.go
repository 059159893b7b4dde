package portal

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/schoolportal/core"
)

func (s *Store) Suggestions() []Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Suggestion(nil), s.suggestions...)
}

func (s *Store) findSuggestion(id string) (Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sug := range s.suggestions {
		if sug.ID == id {
			return sug, true
		}
	}
	return Suggestion{}, false
}

func (s *Store) AddSuggestion(ctx context.Context, ns NewSuggestion) (Suggestion, error) {
	row, err := s.remote.Insert(ctx, core.TableSuggestions, core.Row{
		"name":    ns.Name,
		"email":   ns.Email,
		"message": ns.Message,
		"source":  ns.Source,
		"is_read": false,
	})
	if err != nil {
		return Suggestion{}, s.fail(err, "adding suggestion")
	}
	sug, err := decode[Suggestion](row)
	if err != nil {
		return Suggestion{}, s.fail(err, "decoding suggestion")
	}

	s.mu.Lock()
	s.suggestions = prepend(sug, s.suggestions)
	s.mu.Unlock()
	return sug, nil
}

func (s *Store) MarkSuggestionRead(ctx context.Context, id string) error {
	if err := s.remote.Update(ctx, core.TableSuggestions, id, core.Row{"is_read": true}); err != nil {
		return s.fail(err, "marking suggestion read")
	}

	s.mu.Lock()
	s.suggestions = patched(s.suggestions, func(sug Suggestion) bool { return sug.ID == id }, func(sug *Suggestion) {
		sug.IsRead = true
	})
	s.mu.Unlock()
	return nil
}

// AddSuggestionReply stores the single reply to a suggestion and marks it read.
// The submitter is notified by email when a mailer is configured.
func (s *Store) AddSuggestionReply(ctx context.Context, id, reply, repliedBy string) error {
	sug, known := s.findSuggestion(id)
	if known && sug.RepliedAt != nil {
		return ErrAlreadyReplied
	}

	repliedAt := NowFunc().UTC().Truncate(time.Microsecond)
	patch := core.Row{
		"reply":      reply,
		"replied_at": repliedAt,
		"replied_by": repliedBy,
		"is_read":    true,
	}
	if err := s.remote.Update(ctx, core.TableSuggestions, id, patch); err != nil {
		return s.fail(err, "replying to suggestion")
	}

	s.mu.Lock()
	s.suggestions = patched(s.suggestions, func(sug Suggestion) bool { return sug.ID == id }, func(sug *Suggestion) {
		at := repliedAt
		sug.Reply = reply
		sug.RepliedAt = &at
		sug.RepliedBy = repliedBy
		sug.IsRead = true
	})
	s.mu.Unlock()

	if known {
		sug.Reply, sug.RepliedBy = reply, repliedBy
		s.sendReply(sug)
	}
	return nil
}

type replyEmailData struct {
	Message   string
	Reply     string
	RepliedBy string
}

func (s *Store) sendReply(sug Suggestion) {
	if s.mailer == nil || sug.Email == "" {
		return
	}
	addr, err := mail.ParseAddress(sug.Email)
	if err != nil {
		s.logger.Warn("not sending suggestion reply: invalid email "+sug.Email, err)
		return
	}
	addr.Name = sug.Name

	s.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{*addr},
		Subject:      "Reply to your message",
		TemplateName: core.EmailSuggestionReply,
		TemplateData: replyEmailData{
			Message:   sug.Message,
			Reply:     sug.Reply,
			RepliedBy: sug.RepliedBy,
		},
	})
}

// ClearAllSuggestions deletes every suggestion.
func (s *Store) ClearAllSuggestions(ctx context.Context) error {
	if err := s.remote.Delete(ctx, core.TableSuggestions, core.Neq(core.ColumnID, uuid.Nil.String())); err != nil {
		return s.fail(err, "clearing suggestions")
	}

	s.mu.Lock()
	s.suggestions = []Suggestion{}
	s.mu.Unlock()
	return nil
}

// ClearTeacherSuggestions deletes every suggestion submitted under `name`.
func (s *Store) ClearTeacherSuggestions(ctx context.Context, name string) error {
	if err := s.remote.Delete(ctx, core.TableSuggestions, core.Eq("name", name)); err != nil {
		return s.fail(err, "clearing teacher suggestions")
	}

	s.mu.Lock()
	s.suggestions = without(s.suggestions, func(sug Suggestion) bool { return sug.Name == name })
	s.mu.Unlock()
	return nil
}
