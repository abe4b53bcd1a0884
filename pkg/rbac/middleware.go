package rbac

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// RoleHeader carries the authenticated principal's role claim, set by the
// authentication layer before this middleware runs.
const RoleHeader = "X-Quill-Role"

// ActorHeader carries the authenticated principal's identity.
const ActorHeader = "X-Quill-Actor"

// OwnershipLookup resolves the ownership context for an instance-scoped
// request: given the route's instance id and the acting identity, it returns
// the predicate for the second authorization phase. Returning a nil predicate
// means the request is not instance-scoped.
type OwnershipLookup func(r *http.Request, instanceID, actor string) OwnershipPredicate

// RequireAction returns middleware that gates a route on the two-phase
// authorization check. The route handlers themselves stay outside this
// package; the middleware only translates a Decision into a 403 with the
// structured denial as its body.
func RequireAction(engine *Engine, action Action, lookup OwnershipLookup) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := r.Header.Get(RoleHeader)
			actor := r.Header.Get(ActorHeader)
			if actor == "" {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			var ownership OwnershipPredicate
			if lookup != nil {
				ownership = lookup(r, mux.Vars(r)["id"], actor)
			}

			decision := engine.Authorize(role, action, ownership)
			if !decision.Allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(decision)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
