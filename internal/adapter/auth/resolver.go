// Package auth resolves acting identities to their operative roles.
package auth

import (
	"context"

	"github.com/voyara/poimod/internal/domain"
)

// StaticResolver implements domain.RoleResolver from a fixed admin set.
// Admin membership comes from configuration; partner membership comes
// from the POI row itself (owner or designated partner). There is no
// self-service escalation path.
type StaticResolver struct {
	admins map[string]struct{}
}

// NewStaticResolver creates a resolver from the configured admin IDs.
func NewStaticResolver(adminIDs []string) *StaticResolver {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id != "" {
			admins[id] = struct{}{}
		}
	}
	return &StaticResolver{admins: admins}
}

func (r *StaticResolver) Resolve(_ context.Context, actorID string, poi domain.POI) (domain.RoleSet, error) {
	var roles domain.RoleSet
	if _, ok := r.admins[actorID]; ok {
		roles.Admin = true
	}
	if actorID != "" && (actorID == poi.OwnerID || actorID == poi.PartnerID) {
		roles.Partner = true
	}
	return roles, nil
}
