package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookline/bookline-api/internal/domain"
)

type availabilityFixture struct {
	svc          AvailabilityService
	availability *mockAvailabilityRepo
	catalog      *mockCatalogRepo
}

func newAvailabilityFixture() *availabilityFixture {
	availability := newMockAvailabilityRepo()
	catalog := newMockCatalogRepo()
	return &availabilityFixture{
		svc:          NewAvailabilityService(availability, catalog),
		availability: availability,
		catalog:      catalog,
	}
}

func TestCreateBlockedTimeForServiceOnly(t *testing.T) {
	ctx := context.Background()
	f := newAvailabilityFixture()
	f.catalog.services[10] = &domain.Service{ID: 10, BusinessID: 1, Name: "Massage", IsActive: true}

	start := time.Now().AddDate(0, 0, 3)
	block, err := f.svc.CreateBlockedTime(ctx, ownerActor(3, 1), &domain.BlockedTimeCreateRequest{
		ServiceID:     ptrInt64(10),
		StartDatetime: start,
		EndDatetime:   start.Add(2 * time.Hour),
		Reason:        "therapist out",
	})
	require.NoError(t, err)

	// A service-scoped block carries no business id of its own; ownership is
	// resolved through the service.
	assert.Nil(t, block.BusinessID)
	require.NotNil(t, block.ServiceID)
	assert.Equal(t, int64(10), *block.ServiceID)
	assert.Equal(t, int64(3), block.CreatedBy)
	assert.Nil(t, f.availability.blockedTimes[block.ID].BusinessID)

	t.Run("non-owners are rejected through the service's business", func(t *testing.T) {
		_, err := f.svc.CreateBlockedTime(ctx, customerActor(7), &domain.BlockedTimeCreateRequest{
			ServiceID:     ptrInt64(10),
			StartDatetime: start,
			EndDatetime:   start.Add(time.Hour),
		})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("a target is required", func(t *testing.T) {
		_, err := f.svc.CreateBlockedTime(ctx, ownerActor(3, 1), &domain.BlockedTimeCreateRequest{
			StartDatetime: start,
			EndDatetime:   start.Add(time.Hour),
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestDeleteBlockedTimeAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newAvailabilityFixture()
	f.catalog.services[10] = &domain.Service{ID: 10, BusinessID: 1, Name: "Massage", IsActive: true}

	start := time.Now().AddDate(0, 0, 3)
	block, err := f.svc.CreateBlockedTime(ctx, ownerActor(3, 1), &domain.BlockedTimeCreateRequest{
		ServiceID:     ptrInt64(10),
		StartDatetime: start,
		EndDatetime:   start.Add(time.Hour),
	})
	require.NoError(t, err)

	err = f.svc.DeleteBlockedTime(ctx, customerActor(7), block.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	err = f.svc.DeleteBlockedTime(ctx, ownerActor(3, 1), block.ID)
	require.NoError(t, err)
	assert.Empty(t, f.availability.blockedTimes)
}
