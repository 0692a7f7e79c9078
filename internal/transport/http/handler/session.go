package handler

import (
	"github.com/gin-gonic/gin"

	"gopherai-pdfchat/internal/app"
	"gopherai-pdfchat/internal/transport/http/middleware"
	"gopherai-pdfchat/internal/transport/http/response"
)

type SessionHandler struct {
	documentService *app.DocumentService
	sessionOpts     middleware.SessionOptions
}

func NewSessionHandler(documentService *app.DocumentService, sessionOpts middleware.SessionOptions) *SessionHandler {
	return &SessionHandler{
		documentService: documentService,
		sessionOpts:     sessionOpts,
	}
}

// Reset deletes every upload of the session and forgets the session itself.
// The next request starts with a fresh token.
func (h *SessionHandler) Reset(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	h.documentService.Reset(sess)
	middleware.DiscardSession(c, h.sessionOpts)
	response.OK(c, gin.H{"reset": true})
}
