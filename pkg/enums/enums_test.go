package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"pending", "paid", "shipped", "delivered"} {
		status, err := ParseOrderStatus(raw)
		if err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
		if !status.IsValid() || status.String() != raw {
			t.Fatalf("unexpected status %q for %q", status, raw)
		}
	}

	if _, err := ParseOrderStatus("refunded"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
	if OrderStatus("PENDING").IsValid() {
		t.Fatal("status parsing is case sensitive")
	}
}

func TestUserRoles(t *testing.T) {
	if RoleForStaffFlag(true) != UserRoleStaff {
		t.Fatal("expected staff flag to map to staff role")
	}
	if RoleForStaffFlag(false) != UserRoleCustomer {
		t.Fatal("expected non-staff to map to customer role")
	}
	if _, err := ParseUserRole("admin"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
	role, err := ParseUserRole("staff")
	if err != nil || role != UserRoleStaff {
		t.Fatalf("expected staff role, got %q (%v)", role, err)
	}
}
