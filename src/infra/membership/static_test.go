package membership

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindscale/src/core/domain"
)

func TestStaticResolver(t *testing.T) {
	r := NewStatic([]int64{99, 100}, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	role, err := r.ResolveGroupMembership(ctx, -1, 99)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdministrator, role)
	assert.True(t, role.CanModerate())

	role, err = r.ResolveGroupMembership(ctx, -1, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, role)
	assert.False(t, role.CanModerate())
}

func TestStaticResolverHonoursContext(t *testing.T) {
	r := NewStatic(nil, slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.ResolveGroupMembership(ctx, -1, 99)
	assert.ErrorIs(t, err, context.Canceled)
}
