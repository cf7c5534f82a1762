package middleware

import (
	"context"
	"net/http"
	"strings"

	"pizzeria-service/internal/dto"
	"pizzeria-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CtxClaims = "claims"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Claims, error)
}

// AuthRequired проверяет Bearer-токен и кладёт claims в контекст gin и в context запроса.
func AuthRequired(auth Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("missing Authorization header"))
			return
		}
		token, ok := ExtractBearerToken(authz)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("invalid Authorization header"))
			return
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("empty token"))
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Debug("token rejected", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("invalid token"))
			return
		}

		c.Set(CtxClaims, claims)
		c.Request = c.Request.WithContext(service.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// ClaimsFrom достаёт claims, положенные AuthRequired.
func ClaimsFrom(c *gin.Context) *service.Claims {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil || !claims.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewForbiddenError("admin only"))
			return
		}
		c.Next()
	}
}

// SelfOrAdmin пропускает, если path-параметр param совпадает с покупателем из токена или это админ.
func SelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param(param))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationError("invalid id",
				[]dto.FieldError{{Field: param, Message: "must be a uuid", Tag: "uuid"}}))
			return
		}
		if !ClaimsFrom(c).CanActFor(id) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewForbiddenError("access to another customer is not allowed"))
			return
		}
		c.Next()
	}
}

// ExtractBearerToken извлекает токен из заголовка Authorization, устойчиво к лишним символам
// Примеры допустимых значений:
// - "Bearer abc.def.ghi"
// - "Bearer \"abc.def.ghi\""
// - "Bearer abc.def.ghi, extra"
func ExtractBearerToken(authz string) (string, bool) {
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	t := strings.Trim(strings.TrimSpace(parts[1]), " \"'")
	if i := strings.IndexRune(t, ','); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if i := strings.IndexByte(t, ' '); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return strings.Trim(t, " \"'"), true
}
