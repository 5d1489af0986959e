package server

import (
	"fmt"
	"net/http"
	"time"

	"sensorman/internal/domain/models"
	"sensorman/internal/logs"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookieName   = "jwt_token"
	sessionIDCookieName = "session_id"
	// страница по умолчанию после входа — список всех пользователей
	defaultTargetURL = "/api/users?lastname="
)

const loginPageHTML = `<!DOCTYPE html>
<html lang="ru">
<head><meta charset="utf-8"><title>Вход</title></head>
<body>
<h1>Вход в систему</h1>
%s<form method="post" action="/login">
  <label>Имя пользователя <input type="text" name="username"></label><br>
  <label>Пароль <input type="password" name="password"></label><br>
  <button type="submit">Войти</button>
</form>
</body>
</html>
`

func (api *SensorAPI) root(ctx *gin.Context) {
	if _, ok := api.principalFromRequest(ctx); ok {
		ctx.Redirect(http.StatusFound, defaultTargetURL)
		return
	}
	ctx.Redirect(http.StatusFound, "/login")
}

// loginPage отдаёт форму входа. Уже аутентифицированный клиент сразу
// уводится на страницу по умолчанию.
func (api *SensorAPI) loginPage(ctx *gin.Context) {
	if _, ok := api.principalFromRequest(ctx); ok {
		ctx.Redirect(http.StatusFound, defaultTargetURL)
		return
	}

	errorBlock := ""
	if _, failed := ctx.GetQuery("error"); failed {
		errorBlock = "<p class=\"error\">Неверные учетные данные</p>\n"
	}
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fmt.Sprintf(loginPageHTML, errorBlock)))
}

// login проверяет присланные учётные данные одним запросом к хранилищу.
// Неудача возвращает клиента на форму входа с индикатором ошибки, удача
// выдаёт сессионный токен и выполняет отложенный переход на страницу,
// запрошенную до входа.
func (api *SensorAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.Redirect(http.StatusFound, "/login?error")
		return
	}

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.Redirect(http.StatusFound, "/login?error")
		return
	}

	ok, err := api.repo.IsUserValid(ctx, req.Username, req.Password)
	if err != nil {
		failRequest(ctx, err)
		return
	}
	if !ok {
		logs.Logger.Warnf("неудачная попытка входа: %s", req.Username)
		ctx.Redirect(http.StatusFound, "/login?error")
		return
	}

	token, err := api.issueSessionToken(req.Username)
	if err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.SetCookie(sessionCookieName, token, api.cfg.SessionTTLMin*60, "/", "", false, true)

	target := defaultTargetURL
	if sid, err := ctx.Cookie(sessionIDCookieName); err == nil && sid != "" {
		if saved, found := api.sessions.Take(sid, redirectURLKey); found {
			target = saved
		}
	}

	logs.Logger.Infof("пользователь %s вошёл в систему", req.Username)
	ctx.Redirect(http.StatusFound, target)
}

func (api *SensorAPI) logout(ctx *gin.Context) {
	if sid, err := ctx.Cookie(sessionIDCookieName); err == nil && sid != "" {
		api.sessions.Drop(sid)
	}
	ctx.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	ctx.Redirect(http.StatusFound, "/login")
}

// issueSessionToken подписывает сессионный токен. Ролей в системе нет:
// действительный токен сам по себе означает полный доступ.
func (api *SensorAPI) issueSessionToken(username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(time.Duration(api.cfg.SessionTTLMin) * time.Minute).Unix(),
	})
	return token.SignedString([]byte(api.cfg.SessionSecret))
}

// principalFromRequest извлекает имя пользователя из сессионного cookie.
// Просроченный или неподписанный токен равносилен его отсутствию.
func (api *SensorAPI) principalFromRequest(ctx *gin.Context) (string, bool) {
	raw, err := ctx.Cookie(sessionCookieName)
	if err != nil || raw == "" {
		return "", false
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи токена: %v", t.Header["alg"])
		}
		return []byte(api.cfg.SessionSecret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", false
	}
	return sub, true
}
