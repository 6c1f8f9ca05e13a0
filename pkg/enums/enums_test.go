package enums

import "testing"

func TestOrderStatusRankIsForwardOnly(t *testing.T) {
	order := []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered}
	for i, status := range order {
		if got := status.Rank(); got != i {
			t.Fatalf("%s rank = %d, want %d", status, got, i)
		}
	}
	if OrderStatus("cancelled").Rank() != -1 {
		t.Fatal("expected unknown status rank -1")
	}
}

func TestOrderStatusLabel(t *testing.T) {
	if OrderStatusShipped.Label() != ShippedLabel {
		t.Fatalf("unexpected shipped label %q", OrderStatusShipped.Label())
	}
	if OrderStatusPending.Label() != "Pending" {
		t.Fatalf("unexpected pending label %q", OrderStatusPending.Label())
	}
}

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus("shipped")
	if err != nil || got != OrderStatusShipped {
		t.Fatalf("ParseOrderStatus(shipped) = %q, %v", got, err)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseUserRole(t *testing.T) {
	got, err := ParseUserRole("  Seller ")
	if err != nil || got != UserRoleSeller {
		t.Fatalf("ParseUserRole = %q, %v", got, err)
	}
	if !UserRoleBuyer.IsSelfServe() || UserRoleAdmin.IsSelfServe() {
		t.Fatal("unexpected self-serve roles")
	}
	if _, err := ParseUserRole("agent"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestCatalogKindTable(t *testing.T) {
	kind, err := ParseCatalogKind("BRAND")
	if err != nil {
		t.Fatalf("ParseCatalogKind: %v", err)
	}
	if kind.Table() != "brands" || CatalogKindCategory.Table() != "categories" {
		t.Fatal("unexpected table mapping")
	}
	if CatalogKind("tag").Table() != "" {
		t.Fatal("expected empty table for unknown kind")
	}
}
