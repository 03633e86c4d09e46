package auth_test

import (
	"context"
	"testing"

	"github.com/voyara/poimod/internal/adapter/auth"
	"github.com/voyara/poimod/internal/domain"
)

func TestResolve(t *testing.T) {
	resolver := auth.NewStaticResolver([]string{"admin-1", "admin-2"})
	poi := domain.NewPOI("poi-1", "owner-1", "partner-1", "Musée")

	tests := []struct {
		name    string
		actorID string
		admin   bool
		partner bool
	}{
		{"admin", "admin-1", true, false},
		{"second admin", "admin-2", true, false},
		{"owner", "owner-1", false, true},
		{"designated partner", "partner-1", false, true},
		{"stranger", "user-9", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles, err := resolver.Resolve(context.Background(), tt.actorID, poi)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if roles.Admin != tt.admin {
				t.Errorf("Admin = %v, want %v", roles.Admin, tt.admin)
			}
			if roles.Partner != tt.partner {
				t.Errorf("Partner = %v, want %v", roles.Partner, tt.partner)
			}
		})
	}
}

func TestResolve_AdminOwner(t *testing.T) {
	resolver := auth.NewStaticResolver([]string{"admin-1"})
	poi := domain.NewPOI("poi-1", "admin-1", "", "Musée")

	roles, err := resolver.Resolve(context.Background(), "admin-1", poi)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !roles.Admin || !roles.Partner {
		t.Errorf("roles = %+v, want both admin and partner", roles)
	}
}

func TestResolve_EmptyActorID(t *testing.T) {
	resolver := auth.NewStaticResolver(nil)
	poi := domain.NewPOI("poi-1", "owner-1", "", "Musée")
	poi.PartnerID = ""

	roles, err := resolver.Resolve(context.Background(), "", poi)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !roles.Empty() {
		t.Errorf("roles = %+v, want empty", roles)
	}
}
