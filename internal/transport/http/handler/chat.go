package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-pdfchat/internal/app"
	"gopherai-pdfchat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatRequest struct {
	PDFName string `json:"pdf_name"`
	Message string `json:"message"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat always answers 200 with a reply; degraded outcomes are fixed reply texts.
func (h *ChatHandler) Chat(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	reply := h.chatService.Chat(c.Request.Context(), sess, req.PDFName, req.Message)
	response.OK(c, gin.H{"reply": reply})
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	response.OK(c, gin.H{"history": h.chatService.History(sess, c.Query("pdf_name"))})
}
