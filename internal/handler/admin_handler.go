package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/dailyfocus/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	userIDContextKey = "user_id"
	sessionUserKey   = "user_id"
	sessionNameKey   = "username"
	cronSecretHeader = "X-Cron-Secret"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 校验账号密码，写入会话并签发访问令牌
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return
		}
	} else {
		payload.Username = c.PostForm("username")
		payload.Password = c.PostForm("password")
	}

	user, err := a.users.Authenticate(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "用户名或密码错误")
			return
		}
		logRequestError(c, err)
		respondError(c, http.StatusInternalServerError, "登录失败")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	session.Set(sessionNameKey, user.Username)
	if err := session.Save(); err != nil {
		logRequestError(c, err)
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	token, expiresAt, err := a.tokens.Issue(user.ID)
	if err != nil {
		logRequestError(c, err)
		respondError(c, http.StatusInternalServerError, "令牌签发失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       gin.H{"id": user.ID, "username": user.Username},
		"token":      token,
		"expires_at": formatTimestamp(expiresAt),
	})
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logRequestError(c, err)
	}
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

// AuthRequired 接受会话中的用户或 Authorization: Bearer 令牌，并将用户 ID 写入上下文
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			userID, err := a.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respondError(c, http.StatusUnauthorized, "登录已失效")
				c.Abort()
				return
			}
			c.Set(userIDContextKey, userID)
			c.Next()
			return
		}

		session := sessions.Default(c)
		if userID, ok := sessionUserID(session.Get(sessionUserKey)); ok {
			c.Set(userIDContextKey, userID)
			c.Next()
			return
		}

		respondError(c, http.StatusUnauthorized, "请先登录")
		c.Abort()
	}
}

// CronSecretRequired 校验定时任务请求携带的共享密钥；未配置密钥时拒绝所有请求
func (a *API) CronSecretRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(cronSecretHeader)
		if a.cronSecret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(a.cronSecret)) != 1 {
			respondError(c, http.StatusUnauthorized, "无效的定时任务密钥")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Me 返回当前登录用户
func (a *API) Me(c *gin.Context) {
	user, err := a.users.Get(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": gin.H{"id": user.ID, "username": user.Username}})
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(userIDContextKey)
}

// sessionUserID 兼容 cookie 会话反序列化后的不同整数类型
func sessionUserID(value any) (uint, bool) {
	switch v := value.(type) {
	case uint:
		return v, v > 0
	case uint64:
		return uint(v), v > 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	default:
		return 0, false
	}
}
