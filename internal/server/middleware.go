package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID подставляет идентификатор запроса в контекст и ответ, сохраняя
// идентификатор клиента, если тот его прислал.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		ctx.Set("requestID", id)
		ctx.Writer.Header().Set(requestIDHeader, id)
		ctx.Next()
	}
}

// requireAuth пропускает только запросы с действительным сессионным токеном.
// Для неаутентифицированного запроса исходный URL запоминается в сессии и
// клиент перенаправляется на форму входа.
func (api *SensorAPI) requireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := api.principalFromRequest(ctx); ok {
			ctx.Next()
			return
		}

		sid := api.ensureSessionID(ctx)
		api.sessions.Set(sid, redirectURLKey, ctx.Request.URL.RequestURI())

		ctx.Redirect(http.StatusFound, "/login")
		ctx.Abort()
	}
}

// ensureSessionID возвращает идентификатор браузерной сессии, создавая
// cookie при первом обращении.
func (api *SensorAPI) ensureSessionID(ctx *gin.Context) string {
	if sid, err := ctx.Cookie(sessionIDCookieName); err == nil && sid != "" {
		return sid
	}
	sid := api.sessions.NewID()
	ctx.SetCookie(sessionIDCookieName, sid, 0, "/", "", false, true)
	return sid
}
