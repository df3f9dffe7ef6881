package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/strandline/ferrybooking/internal/domain"
)

const actorKey = "actor"

// Middleware validates a Bearer token and puts the resolved Actor into the gin
// context. Tokens are HS256 with sub (actor id), username and role claims.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			return
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		SetActor(c, actor)
		c.Next()
	}
}

// SetActor stores the resolved actor on the request context. Exposed so tests
// can stand in for the middleware.
func SetActor(c *gin.Context, actor domain.Actor) {
	c.Set(actorKey, actor)
}

// RequireRole gates a route group to one or more roles. Admin passes every gate.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		if actor.Role == domain.RoleAdmin {
			c.Next()
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

func ActorFromContext(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

func actorFromClaims(claims jwt.MapClaims) (domain.Actor, error) {
	var actor domain.Actor
	switch sub := claims["sub"].(type) {
	case float64:
		actor.ID = int64(sub)
	case string:
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return actor, errInvalidSubject
		}
		actor.ID = id
	default:
		return actor, errInvalidSubject
	}
	if username, ok := claims["username"].(string); ok {
		actor.Username = username
	}
	if role, ok := claims["role"].(string); ok {
		actor.Role = domain.Role(role)
	}
	if actor.Username == "" || actor.Role == "" {
		return actor, errInvalidClaims
	}
	return actor, nil
}

var (
	errInvalidSubject = errors.New("invalid subject claim")
	errInvalidClaims  = errors.New("missing identity claims")
)
