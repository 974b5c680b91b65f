package middleware

import (
	"net/http"

	"github.com/angelmondragon/shopeasy-backend/api/responses"
	"github.com/angelmondragon/shopeasy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
	"github.com/angelmondragon/shopeasy-backend/pkg/logger"
)

// RequireStaff restricts catalog and order administration to staff accounts.
// Requests without a role in context are treated as customers.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role != enums.UserRoleStaff {
				if logg != nil {
					logg.Warn(logg.WithFields(r.Context(), map[string]any{
						"actor_role": role.String(),
						"path":       r.URL.Path,
					}), "auth.staff_required")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
