package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-pdfchat/internal/model"
	"gopherai-pdfchat/internal/transport/http/middleware"
	"gopherai-pdfchat/internal/transport/http/response"
)

func sessionFromContext(c *gin.Context) (*model.Session, bool) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "session missing")
		return nil, false
	}
	return sess, true
}
