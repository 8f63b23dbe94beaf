package billing_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/toolbox/internal/access"
	"github.com/magabrotheeeer/toolbox/internal/events"
	"github.com/magabrotheeeer/toolbox/internal/models"
	"github.com/magabrotheeeer/toolbox/internal/services/billing"
	"github.com/magabrotheeeer/toolbox/internal/storage"
)

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUserByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateSubscription(ctx context.Context, email string, patch models.SubscriptionPatch) (*models.User, error) {
	args := m.Called(ctx, email, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateSubscriptionByCustomerID(ctx context.Context, customerID string, patch models.SubscriptionPatch) (*models.User, error) {
	args := m.Called(ctx, customerID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusFromProvider(t *testing.T) {
	tests := map[string]access.SubscriptionStatus{
		"active":             access.SubscriptionActive,
		"trialing":           access.SubscriptionActive,
		" Active ":           access.SubscriptionActive,
		"past_due":           access.SubscriptionInactive,
		"canceled":           access.SubscriptionInactive,
		"incomplete_expired": access.SubscriptionInactive,
		"":                   access.SubscriptionInactive,
	}
	for in, want := range tests {
		assert.Equal(t, want, billing.StatusFromProvider(in), in)
	}
}

func TestService_Apply(t *testing.T) {
	user := &models.User{Email: "alice@example.com", BillingCustomerID: "cus_1"}
	dbErr := errors.New("db down")

	tests := []struct {
		name       string
		event      billing.Event
		setupMocks func(r *UserRepoMock)
		want       billing.Result
		wantErr    error
	}{
		{
			name: "checkout activates by email",
			event: billing.Event{Type: billing.EventCheckoutCompleted, Data: billing.EventData{
				Email: "alice@example.com", CustomerID: "cus_1", SubscriptionID: "sub_1",
			}},
			setupMocks: func(r *UserRepoMock) {
				r.On("UpdateSubscription", mock.Anything, "alice@example.com", models.SubscriptionPatch{
					Status: access.SubscriptionActive, BillingCustomerID: "cus_1", BillingSubscriptionID: "sub_1",
				}).Return(user, nil).Once()
			},
			want: billing.ResultApplied,
		},
		{
			name:       "checkout without email is ignored",
			event:      billing.Event{Type: billing.EventCheckoutCompleted},
			setupMocks: func(_ *UserRepoMock) {},
			want:       billing.ResultIgnored,
		},
		{
			name:  "checkout for unknown user",
			event: billing.Event{Type: billing.EventCheckoutCompleted, Data: billing.EventData{Email: "ghost@example.com"}},
			setupMocks: func(r *UserRepoMock) {
				r.On("UpdateSubscription", mock.Anything, "ghost@example.com", mock.Anything).Return(nil, storage.ErrUserNotFound).Once()
			},
			want: billing.ResultUnknownUser,
		},
		{
			name:  "checkout storage failure",
			event: billing.Event{Type: billing.EventCheckoutCompleted, Data: billing.EventData{Email: "alice@example.com"}},
			setupMocks: func(r *UserRepoMock) {
				r.On("UpdateSubscription", mock.Anything, "alice@example.com", mock.Anything).Return(nil, dbErr).Once()
			},
			wantErr: dbErr,
		},
		{
			name: "subscription updated to past_due deactivates",
			event: billing.Event{Type: billing.EventSubscriptionUpdated, Data: billing.EventData{
				CustomerID: "cus_1", SubscriptionID: "sub_2", Status: "past_due",
			}},
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByCustomerID", mock.Anything, "cus_1").Return(user, nil).Once()
				r.On("UpdateSubscriptionByCustomerID", mock.Anything, "cus_1", models.SubscriptionPatch{
					Status: access.SubscriptionInactive, BillingSubscriptionID: "sub_2",
				}).Return(user, nil).Once()
			},
			want: billing.ResultApplied,
		},
		{
			name: "subscription deleted is inactive whatever the status",
			event: billing.Event{Type: billing.EventSubscriptionDeleted, Data: billing.EventData{
				CustomerID: "cus_1", Status: "active",
			}},
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByCustomerID", mock.Anything, "cus_1").Return(user, nil).Once()
				r.On("UpdateSubscriptionByCustomerID", mock.Anything, "cus_1", models.SubscriptionPatch{
					Status: access.SubscriptionInactive,
				}).Return(user, nil).Once()
			},
			want: billing.ResultApplied,
		},
		{
			name:  "subscription event for unknown customer",
			event: billing.Event{Type: billing.EventSubscriptionUpdated, Data: billing.EventData{CustomerID: "cus_x", Status: "active"}},
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByCustomerID", mock.Anything, "cus_x").Return(nil, storage.ErrUserNotFound).Once()
			},
			want: billing.ResultUnknownUser,
		},
		{
			name:       "subscription event without customer",
			event:      billing.Event{Type: billing.EventSubscriptionUpdated},
			setupMocks: func(_ *UserRepoMock) {},
			want:       billing.ResultIgnored,
		},
		{
			name:       "unknown event type",
			event:      billing.Event{Type: "invoice.paid"},
			setupMocks: func(_ *UserRepoMock) {},
			want:       billing.ResultIgnored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := billing.New(newNoopLogger(), repo)

			got, err := svc.Apply(context.Background(), tt.event)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func TestService_ApplyPublishesSubscriptionChanged(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	trialEnd := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
	updated := &models.User{
		Email:              "alice@example.com",
		TrialEndsAt:        trialEnd,
		SubscriptionStatus: access.SubscriptionActive,
		BillingCustomerID:  "cus_1",
	}

	repo := new(UserRepoMock)
	pub := new(PublisherMock)
	svc := billing.New(newNoopLogger(), repo,
		billing.WithEvents(pub),
		billing.WithClock(func() time.Time { return now }),
	)

	repo.On("UpdateSubscription", mock.Anything, "alice@example.com", mock.Anything).Return(updated, nil).Once()
	// ошибка брокера не влияет на результат обработки
	pub.On("Publish", mock.Anything, events.Event{
		Type:               events.SubscriptionChanged,
		Email:              "alice@example.com",
		SubscriptionStatus: access.SubscriptionActive,
		TrialEndsAt:        access.FormatTrialEnd(trialEnd),
		OccurredAt:         now,
	}).Return(errors.New("broker down")).Once()

	got, err := svc.Apply(context.Background(), billing.Event{
		Type: billing.EventCheckoutCompleted,
		Data: billing.EventData{Email: "alice@example.com", CustomerID: "cus_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, billing.ResultApplied, got)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestService_ApplyIgnoredEventIsNotPublished(t *testing.T) {
	repo := new(UserRepoMock)
	pub := new(PublisherMock)
	svc := billing.New(newNoopLogger(), repo, billing.WithEvents(pub))

	got, err := svc.Apply(context.Background(), billing.Event{Type: "invoice.paid"})
	require.NoError(t, err)
	assert.Equal(t, billing.ResultIgnored, got)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
