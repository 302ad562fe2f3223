package util

import (
	"context"
	"net/http"

	"github.com/AlmonerProjects/almoner"
)

// ALMContextType is the string type for all context values
type ALMContextType string

const (
	// ActorKey is the key to be used for adding the authenticated actor to context
	ActorKey = ALMContextType("actor")
	// OrgKey is the key to be used for adding the organization ID to context
	OrgKey = ALMContextType("org")
)

// Actor returns the authenticated actor from request context
func Actor(r *http.Request) *almoner.Actor {
	return ActorContext(r.Context())
}

func ActorContext(ctx context.Context) *almoner.Actor {
	switch v := ctx.Value(ActorKey).(type) {
	case almoner.Actor:
		return &v
	case *almoner.Actor:
		return v
	default:
		return nil
	}
}

// OrgID returns the organization scope from request context, or 0 if unset
func OrgID(r *http.Request) int {
	return OrgIDContext(r.Context())
}

func OrgIDContext(ctx context.Context) int {
	if v, ok := ctx.Value(OrgKey).(int); ok {
		return v
	}
	return 0
}
