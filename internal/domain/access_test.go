package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorCanManageBooking(t *testing.T) {
	booking := &Booking{ID: 1, UserID: 7, BusinessID: 3}

	tests := []struct {
		name  string
		actor *Actor
		want  bool
	}{
		{
			name:  "the booking's customer",
			actor: &Actor{User: &User{ID: 7}, Roles: []string{RoleCustomer}},
			want:  true,
		},
		{
			name:  "the business owner",
			actor: &Actor{User: &User{ID: 9}, Roles: []string{RoleCustomer}, OwnedBusinesses: []int64{3}},
			want:  true,
		},
		{
			name:  "an admin",
			actor: &Actor{User: &User{ID: 10}, Roles: []string{RoleAdmin}},
			want:  true,
		},
		{
			name:  "an unrelated customer",
			actor: &Actor{User: &User{ID: 11}, Roles: []string{RoleCustomer}},
			want:  false,
		},
		{
			name:  "an owner of a different business",
			actor: &Actor{User: &User{ID: 12}, OwnedBusinesses: []int64{4}},
			want:  false,
		},
		{
			name:  "a nil actor",
			actor: nil,
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.actor.CanManageBooking(booking))
		})
	}
}

func TestActorCanManageBusiness(t *testing.T) {
	owner := &Actor{User: &User{ID: 9}, OwnedBusinesses: []int64{3, 5}}
	assert.True(t, owner.CanManageBusiness(3))
	assert.True(t, owner.CanManageBusiness(5))
	assert.False(t, owner.CanManageBusiness(4))

	admin := &Actor{User: &User{ID: 1}, Roles: []string{RoleAdmin}}
	assert.True(t, admin.CanManageBusiness(4))
}

func TestActorRequireActive(t *testing.T) {
	active := &Actor{User: &User{ID: 7, Status: UserActive}}
	require.NoError(t, active.RequireActive())

	suspended := &Actor{User: &User{ID: 7, Status: UserSuspended}}
	require.ErrorIs(t, suspended.RequireActive(), ErrForbidden)

	var missing *Actor
	require.ErrorIs(t, missing.RequireActive(), ErrUnauthenticated)
	assert.Zero(t, missing.ID())
}
