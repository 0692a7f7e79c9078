package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gopherai-pdfchat/internal/ai"
	"gopherai-pdfchat/internal/metrics"
	"gopherai-pdfchat/internal/model"
)

// Fixed replies for the degraded chat outcomes.
const (
	ReplyNoDocument         = "No PDF uploaded. Please upload a PDF first."
	ReplyDocumentNotFound   = "PDF not found or has been removed. Please upload or select a valid PDF."
	ReplyServiceUnavailable = "Sorry, there was an error connecting to the AI. Please try again later."
)

// Completer generates a reply for a message sequence.
type Completer interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

type ChatService struct {
	completer Completer
	logger    *zerolog.Logger
}

func NewChatService(completer Completer, logger *zerolog.Logger) *ChatService {
	return &ChatService{
		completer: completer,
		logger:    logger,
	}
}

// Chat answers message about target (a document name or model.AggregateKey) and
// records both turns in the target's transcript. It always returns a reply.
func (s *ChatService) Chat(ctx context.Context, sess *model.Session, target, message string) string {
	if !sess.HasDocuments() {
		metrics.ChatReply("no_documents")
		return ReplyNoDocument
	}
	// The new turn is replayed as history, but only lands in sess once the
	// target resolved.
	message = strings.TrimSpace(message)
	prompt := sess.Clone()
	prompt.AppendTurn(target, model.RoleUser, message)
	messages, err := BuildPrompt(prompt, target, message)
	if err != nil {
		metrics.ChatReply("not_found")
		return ReplyDocumentNotFound
	}
	sess.AppendTurn(target, model.RoleUser, message)

	start := time.Now()
	reply, err := s.completer.Complete(ctx, messages)
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		s.logger.Warn().
			Err(err).
			Str("session_id", sess.ID).
			Str("target", target).
			Dur("elapsed", time.Since(start)).
			Msg("completion failed")
		reply = ReplyServiceUnavailable
		metrics.ChatReply("apology")
	} else {
		s.logger.Debug().
			Str("session_id", sess.ID).
			Str("target", target).
			Int("prompt_messages", len(messages)).
			Dur("elapsed", time.Since(start)).
			Msg("completion succeeded")
		metrics.ChatReply("answered")
	}

	sess.AppendTurn(target, model.RoleAssistant, reply)
	return reply
}

// History returns the transcript for key. The aggregate key yields every
// transcript of the session flattened into one list.
func (s *ChatService) History(sess *model.Session, key string) []model.ChatTurn {
	if key == model.AggregateKey {
		return sess.AllTurns()
	}
	return sess.Turns(key)
}
