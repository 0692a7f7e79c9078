package app

import (
	"fmt"
	"strings"

	"gopherai-pdfchat/internal/ai"
	"gopherai-pdfchat/internal/model"
)

const (
	// MaxHistoryTurns bounds how many transcript turns are replayed to the model.
	MaxHistoryTurns = 6
	// MaxContextChars is the hard cut applied to the document excerpt.
	MaxContextChars = 3500
)

// BuildPrompt composes the completion messages for target. It reads the session
// only; the caller appends the user turn beforehand.
func BuildPrompt(sess *model.Session, target, userText string) ([]ai.ChatMessage, error) {
	var contextText, systemPrompt string
	if target == model.AggregateKey {
		texts := make([]string, 0, len(sess.Documents))
		for _, doc := range sess.Documents {
			if strings.TrimSpace(doc.Text) != "" {
				texts = append(texts, doc.Text)
			}
		}
		contextText = strings.Join(texts, "\n\n")
		systemPrompt = fmt.Sprintf(
			"You are an AI assistant for PDF chat. The user uploaded these PDFs: %s.\nAnswer based on the content. Use markdown if useful.",
			strings.Join(sess.DocumentNames(), ", "),
		)
	} else {
		doc, ok := sess.Document(target)
		if !ok {
			return nil, ErrDocumentNotFound
		}
		contextText = doc.Text
		systemPrompt = fmt.Sprintf(
			"You are an AI assistant for PDF chat. The user uploaded this PDF: %s.\nAnswer based on the content. Use markdown if useful.",
			target,
		)
	}

	history := lastTurns(sess.Turns(target), MaxHistoryTurns)
	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages, ai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.ChatMessage{
		Role:    ai.RoleUser,
		Content: userText + "\n\nPDF content:\n" + truncateRunes(contextText, MaxContextChars),
	})
	return messages, nil
}

func lastTurns(turns []model.ChatTurn, limit int) []model.ChatTurn {
	if limit <= 0 {
		return nil
	}
	if len(turns) <= limit {
		return turns
	}
	return turns[len(turns)-limit:]
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
