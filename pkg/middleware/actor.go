package middleware

import (
	"sharemeal-platform/pkg/actor"

	"github.com/gin-gonic/gin"
)

const (
	ActorIDHeader   = "X-Actor-Id"
	ActorRoleHeader = "X-Actor-Role"

	actorKey = "sharemeal.actor"
)

// Actor copies the authenticated identity headers into the request context.
// The auth proxy in front of this service is responsible for validating the
// session and setting the headers.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor.Actor{
			ID:   c.GetHeader(ActorIDHeader),
			Role: actor.Role(c.GetHeader(ActorRoleHeader)),
		}
		c.Set(actorKey, a)
		c.Next()
	}
}

func ActorFrom(c *gin.Context) actor.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(actor.Actor); ok {
			return a
		}
	}
	return actor.Actor{}
}
