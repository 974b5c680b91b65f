package middleware

import (
	"context"
	"testing"

	"github.com/angelmondragon/shopeasy-backend/pkg/enums"
)

func TestContextHelpersDefaultToZero(t *testing.T) {
	ctx := context.Background()
	if UserIDFromContext(ctx) != 0 || RoleFromContext(ctx) != "" || AccessIDFromContext(ctx) != "" {
		t.Fatal("expected zero values on empty context")
	}

	ctx = WithUserID(ctx, 9)
	ctx = WithRole(ctx, enums.UserRoleCustomer)
	ctx = WithAccessID(ctx, "jti")
	if UserIDFromContext(ctx) != 9 || RoleFromContext(ctx) != enums.UserRoleCustomer || AccessIDFromContext(ctx) != "jti" {
		t.Fatal("expected seeded values")
	}
}
