package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gopherai-pdfchat/internal/model"
	"gopherai-pdfchat/internal/pkg/jwtutil"
	"gopherai-pdfchat/internal/session"
	"gopherai-pdfchat/internal/transport/http/response"
)

const (
	ContextSessionKey = "session"
	contextDiscardKey = "session_discard"
)

type SessionOptions struct {
	Store      session.Store
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
	Logger     *zerolog.Logger
}

// Session resolves the caller's session from the signed cookie, creating a new
// one when the cookie is missing or invalid, and writes it back after the
// handler ran.
func Session(opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if raw, err := c.Cookie(opts.CookieName); err == nil && raw != "" {
			if claims, err := jwtutil.ParseToken(opts.Secret, raw); err == nil && claims.SessionID != "" {
				id = claims.SessionID
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		sess, _, err := session.LoadOrCreate(c.Request.Context(), opts.Store, id)
		if err != nil {
			opts.Logger.Error().Err(err).Str("session_id", id).Msg("load session failed")
			response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "session store unavailable")
			c.Abort()
			return
		}

		token, err := jwtutil.GenerateToken(opts.Secret, opts.TTL, sess.ID)
		if err != nil {
			opts.Logger.Error().Err(err).Msg("issue session token failed")
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "issue session failed")
			c.Abort()
			return
		}
		setCookie(c, opts, token, int(opts.TTL.Seconds()))
		c.Set(ContextSessionKey, sess)

		c.Next()

		if c.GetBool(contextDiscardKey) {
			if err := opts.Store.Delete(c.Request.Context(), sess.ID); err != nil {
				opts.Logger.Warn().Err(err).Str("session_id", sess.ID).Msg("delete session failed")
			}
			return
		}
		if err := opts.Store.Save(c.Request.Context(), sess); err != nil {
			opts.Logger.Error().Err(err).Str("session_id", sess.ID).Msg("save session failed")
		}
	}
}

// DiscardSession drops the current session after the handler returns and
// expires its cookie. Call it before writing the response body.
func DiscardSession(c *gin.Context, opts SessionOptions) {
	c.Set(contextDiscardKey, true)
	setCookie(c, opts, "", -1)
}

// SessionFrom returns the session attached by Session.
func SessionFrom(c *gin.Context) (*model.Session, bool) {
	v, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*model.Session)
	return sess, ok && sess != nil
}

func setCookie(c *gin.Context, opts SessionOptions, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(opts.CookieName, value, maxAge, "/", "", opts.Secure, true)
}
