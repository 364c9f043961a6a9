// Package membership resolves group roles without a chat platform behind it.
package membership

import (
	"context"
	"log/slog"

	"mindscale/src/core/domain"
	"mindscale/src/core/ports"
)

var _ ports.MembershipResolver = (*Static)(nil)

// Static grants the administrator role to a configured set of users in every
// group and treats everyone else as a plain member.
type Static struct {
	admins map[int64]struct{}
	log    *slog.Logger
}

// NewStatic builds a resolver from the configured admin ids.
func NewStatic(adminIDs []int64, log *slog.Logger) *Static {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	if len(admins) == 0 {
		log.Warn("no admin users configured; force start and force end are disabled")
	}
	return &Static{admins: admins, log: log}
}

func (s *Static) ResolveGroupMembership(ctx context.Context, groupID, userID int64) (domain.Role, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, ok := s.admins[userID]; ok {
		return domain.RoleAdministrator, nil
	}
	return domain.RoleMember, nil
}
