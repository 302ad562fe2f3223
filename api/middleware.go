package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/AlmonerProjects/almoner"
	"github.com/AlmonerProjects/almoner/internal/util"
)

// SetupActor adds the actor and organization scope supplied by the upstream
// identity proxy to the request context. The proxy terminates
// authentication; these headers are trusted inside the deployment perimeter.
func (s *API) SetupActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := r.Header.Get("X-Actor-ID")
		orgID, _ := strconv.Atoi(r.Header.Get("X-Org-ID"))
		if actorID == "" || orgID <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		actor := &almoner.Actor{
			ID:    actorID,
			Type:  almoner.ActorTypeUser,
			Email: r.Header.Get("X-Actor-Email"),
		}
		if caps := r.Header.Get("X-Actor-Capabilities"); caps != "" {
			actor.Capabilities = strings.Split(caps, ",")
		}

		ctx := context.WithValue(r.Context(), util.ActorKey, actor)
		ctx = context.WithValue(ctx, util.OrgKey, orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// MustBeAuthed is middleware to make sure the request carries an
// authenticated actor and an organization scope
func (s *API) MustBeAuthed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if util.Actor(r) == nil || util.OrgID(r) <= 0 {
			errorData(w, "You must be authenticated to do this", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
