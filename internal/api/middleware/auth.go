package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// BasicAuthConfig holds the single account allowed to use the driver.
// Password is compared as a bcrypt hash when it looks like one.
type BasicAuthConfig struct {
	Username string
	Password string
	Realm    string
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func (cfg BasicAuthConfig) verify(user, pass string) bool {
	if subtle.ConstantTimeCompare([]byte(user), []byte(cfg.Username)) != 1 {
		return false
	}
	if isBcryptHash(cfg.Password) {
		return bcrypt.CompareHashAndPassword([]byte(cfg.Password), []byte(pass)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
}

// BasicAuth rejects requests without valid credentials. Paths in skip,
// such as health probes, pass through.
func BasicAuth(cfg BasicAuthConfig, skip ...string) gin.HandlerFunc {
	realm := cfg.Realm
	if realm == "" {
		realm = "deskdriver"
	}
	open := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		open[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := open[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok || !cfg.verify(user, pass) {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			abortWithError(c, http.StatusUnauthorized, "unknown error", "authentication required")
			return
		}
		c.Set(gin.AuthUserKey, user)
		c.Next()
	}
}
