package assignment

import (
	"github.com/gin-gonic/gin"

	"github.com/adlytics/experiment-service/internal/domain"
	"github.com/adlytics/experiment-service/internal/metrics"
)

const (
	ctxVisitorIDKey   = "assignment.visitorID"
	ctxAssignmentsKey = "assignment.variants"
)

// Middleware resolves the visitor id and a sticky variant for every active
// experiment, sets cookies for anything freshly assigned, and stashes the
// results in the request context for downstream handlers and recorders.
//
// Two concurrent first requests from the same new visitor can each draw
// their own variant; whichever Set-Cookie lands last in the client wins.
// That window exists only before the first response is stored and closing
// it would require a server-side assignment table, so it is accepted.
func Middleware(engine *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID, err := c.Cookie(VisitorCookie)
		if err != nil || visitorID == "" {
			visitorID = engine.MintVisitorID()
			c.SetCookie(VisitorCookie, visitorID, CookieMaxAge, "/", "", false, true)
		}

		assignments := make(map[string]domain.Variant, engine.Registry().Len())
		for _, def := range engine.Registry().All() {
			name := VariantCookieName(def.TestID)
			token, _ := c.Cookie(name)

			variant, fresh := engine.ResolveVariant(token)
			if fresh {
				c.SetCookie(name, string(variant), CookieMaxAge, "/", "", false, true)
				metrics.AssignmentsTotal.WithLabelValues(def.TestID, string(variant)).Inc()
			}
			assignments[def.TestID] = variant
		}

		c.Set(ctxVisitorIDKey, visitorID)
		c.Set(ctxAssignmentsKey, assignments)
		c.Next()
	}
}

// VisitorID returns the visitor id resolved by Middleware, if any.
func VisitorID(c *gin.Context) (string, bool) {
	id, ok := c.Get(ctxVisitorIDKey)
	if !ok {
		return "", false
	}
	s, ok := id.(string)
	return s, ok && s != ""
}

// Variants returns the variant map resolved by Middleware. Nil when
// Middleware has not run, which every consumer treats as "no assignments".
func Variants(c *gin.Context) map[string]domain.Variant {
	v, ok := c.Get(ctxAssignmentsKey)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]domain.Variant)
	return m
}
