// FILE: internal/service/entitlement_service_test.go
package service

import (
	"context"
	"sync"
	"testing"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		user    entity.User
		action  entity.Action
		wantErr error
	}{
		{
			name:   "verified user with quota",
			user:   entity.User{Verified: true, Requests: 2, MaxRequests: 3, MaxImageRequests: 1},
			action: entity.ActionText,
		},
		{
			name:    "verified user at text ceiling",
			user:    entity.User{Verified: true, Requests: 3, MaxRequests: 3, MaxImageRequests: 1},
			action:  entity.ActionText,
			wantErr: apperr.ErrQuotaExceeded,
		},
		{
			name:   "image counter independent of text counter",
			user:   entity.User{Verified: true, Requests: 3, MaxRequests: 3, ImageRequests: 0, MaxImageRequests: 1},
			action: entity.ActionImage,
		},
		{
			name:   "unverified user first action allowed",
			user:   entity.User{Verified: false, Requests: 0, MaxRequests: 3, MaxImageRequests: 1},
			action: entity.ActionText,
		},
		{
			name:    "unverified user capped after one action of any kind",
			user:    entity.User{Verified: false, Requests: 1, MaxRequests: 3, ImageRequests: 0, MaxImageRequests: 1},
			action:  entity.ActionImage,
			wantErr: apperr.ErrQuotaExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			user.Id = uuid.New()
			svc := NewEntitlementService(newFakeFactory(newFakeUserRepo(&user)))

			err := svc.Authorize(context.Background(), user.Id, tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthorizeUnknownUser(t *testing.T) {
	svc := NewEntitlementService(newFakeFactory(newFakeUserRepo()))

	err := svc.Authorize(context.Background(), uuid.New(), entity.ActionText)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestConsumeStopsAtCeiling(t *testing.T) {
	user := &entity.User{Id: uuid.New(), Verified: true, MaxRequests: 3, MaxImageRequests: 1}
	repo := newFakeUserRepo(user)
	svc := NewEntitlementService(newFakeFactory(repo))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Consume(ctx, user.Id, entity.ActionText))
	}
	err := svc.Consume(ctx, user.Id, entity.ActionText)
	assert.ErrorIs(t, err, apperr.ErrQuotaExceeded)

	got := repo.get(user.Id)
	assert.Equal(t, 3, got.Requests)
}

// Many goroutines race for the last units of quota; the counter must land
// exactly on the ceiling.
func TestConsumeConcurrent(t *testing.T) {
	user := &entity.User{Id: uuid.New(), Verified: true, MaxRequests: 10, MaxImageRequests: 1}
	repo := newFakeUserRepo(user)
	svc := NewEntitlementService(newFakeFactory(repo))

	const workers = 50
	var wg sync.WaitGroup
	var okCount int64
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Consume(context.Background(), user.Id, entity.ActionText); err == nil {
				mu.Lock()
				okCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, okCount)
	assert.Equal(t, 10, repo.get(user.Id).Requests)
}

func TestQuotaExceededMapsToConflict(t *testing.T) {
	user := &entity.User{Id: uuid.New(), Verified: true, Requests: 3, MaxRequests: 3, MaxImageRequests: 1}
	svc := NewEntitlementService(newFakeFactory(newFakeUserRepo(user)))

	err := svc.Consume(context.Background(), user.Id, entity.ActionText)
	require.Error(t, err)
	assert.Equal(t, 409, apperr.StatusCode(err))
}
