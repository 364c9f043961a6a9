package ports

import (
	"context"

	"mindscale/src/core/domain"
)

// ExternalService is the base interface for external service adapters.
type ExternalService interface {
	// Health checks if the external service is reachable.
	Health(ctx context.Context) error
}

// Messenger delivers notices. Delivery is best effort: callers log failures
// and carry on.
type Messenger interface {
	SendToUser(ctx context.Context, userID int64, notice domain.Notice) error
	SendToGroup(ctx context.Context, groupID int64, notice domain.Notice) error
}

// MembershipResolver reports a user's role in a group chat.
type MembershipResolver interface {
	ResolveGroupMembership(ctx context.Context, groupID, userID int64) (domain.Role, error)
}
