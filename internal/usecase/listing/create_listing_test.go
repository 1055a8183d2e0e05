package listing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/listing"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/usecasetest"
)

func newCreate(env *usecasetest.Env) *listing.CreateListingUseCase {
	return listing.NewCreateListingUseCase(env.Listings, env.Pricing, env.Checkout, env.Notifier, env.Clock)
}

func TestCreateListing_RegularUserWaitsForPayment(t *testing.T) {
	env := usecasetest.NewEnv(t)
	owner := usecasetest.User()

	result, err := newCreate(env).Execute(context.Background(), listing.CreateListingInput{
		Requester: owner,
		Content:   usecasetest.PlayerContent("Нападающий ищет клуб"),
	})
	require.NoError(t, err)

	l := result.Listing
	assert.Equal(t, valueobject.LifecycleStatusPendingPayment, l.Status)
	assert.False(t, l.Payment.IsPaid)
	assert.Equal(t, 50.0, l.Contact.UnlockCost.Amount)

	require.NotNil(t, result.Payment)
	assert.Equal(t, valueobject.PaymentTypeAddListing, result.Payment.Type)
	assert.Equal(t, 10.0, result.Payment.Amount.Amount)
	assert.Contains(t, result.Payment.URL, result.Payment.PaymentID.String())
	assert.Equal(t, 1, env.Notifier.Count(repository.EventListingPaymentRequired))

	stored, err := env.Payments.FindByID(context.Background(), result.Payment.PaymentID)
	require.NoError(t, err)
	assert.True(t, stored.IsPending())
	assert.Equal(t, owner.ID, stored.UserID)
}

func TestCreateListing_SettlementActivatesOnce(t *testing.T) {
	env := usecasetest.NewEnv(t)
	owner := usecasetest.User()

	result, err := newCreate(env).Execute(context.Background(), listing.CreateListingInput{
		Requester: owner,
		Content:   usecasetest.PlayerContent("Нападающий ищет клуб"),
	})
	require.NoError(t, err)

	first := env.Settle(t, result.Payment.PaymentID)
	assert.Equal(t, payment.OutcomeApplied, first.Outcome)

	l := env.Reload(t, result.Listing.ID)
	assert.Equal(t, valueobject.LifecycleStatusActive, l.Status)
	assert.True(t, l.Payment.IsPaid)
	paidAt := *l.Payment.PaidAt

	env.Clock.Advance(10 * time.Minute)
	second := env.Settle(t, result.Payment.PaymentID)
	assert.Equal(t, payment.OutcomeDuplicate, second.Outcome)

	l = env.Reload(t, result.Listing.ID)
	assert.Equal(t, paidAt, *l.Payment.PaidAt)
	assert.Equal(t, 1, env.Notifier.Count(repository.EventListingActivated))
}

func TestCreateListing_ExemptRoleActivatesImmediately(t *testing.T) {
	env := usecasetest.NewEnv(t)

	result, err := newCreate(env).Execute(context.Background(), listing.CreateListingInput{
		Requester: usecasetest.Admin(),
		Content:   usecasetest.PlayerContent("Объявление администратора"),
	})
	require.NoError(t, err)

	assert.Nil(t, result.Payment)
	assert.Equal(t, valueobject.LifecycleStatusActive, result.Listing.Status)
	assert.True(t, result.Listing.Payment.IsPaid)
	assert.Zero(t, env.Gateway.Calls())
	assert.Equal(t, 1, env.Notifier.Count(repository.EventListingCreated))
}

func TestCreateListing_GatewayFailureKeepsListing(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.Gateway.Err = usecasetest.ErrGatewayDown

	result, err := newCreate(env).Execute(context.Background(), listing.CreateListingInput{
		Requester: usecasetest.User(),
		Content:   usecasetest.PlayerContent("Нападающий ищет клуб"),
	})
	require.NoError(t, err)

	require.NotNil(t, result.Payment)
	assert.Empty(t, result.Payment.URL)
	assert.Equal(t, 10.0, result.Payment.Amount.Amount)
	assert.Equal(t, valueobject.LifecycleStatusPendingPayment, env.Reload(t, result.Listing.ID).Status)
}

func TestCreateListing_CustomUnlockCost(t *testing.T) {
	env := usecasetest.NewEnv(t)
	cost := 12.5

	result, err := newCreate(env).Execute(context.Background(), listing.CreateListingInput{
		Requester:  usecasetest.User(),
		Content:    usecasetest.OfferContent("Клуб ищет вратаря", usecasetest.Epoch.AddDate(0, 1, 0)),
		UnlockCost: &cost,
	})
	require.NoError(t, err)

	assert.Equal(t, 12.5, result.Listing.Contact.UnlockCost.Amount)
	assert.Equal(t, 20.0, result.Payment.Amount.Amount)
}

func TestCreateListing_Rejects(t *testing.T) {
	env := usecasetest.NewEnv(t)
	uc := newCreate(env)

	_, err := uc.Execute(context.Background(), listing.CreateListingInput{
		Content: usecasetest.PlayerContent("Нападающий ищет клуб"),
	})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	negative := -1.0
	_, err = uc.Execute(context.Background(), listing.CreateListingInput{
		Requester:  usecasetest.User(),
		Content:    usecasetest.PlayerContent("Нападающий ищет клуб"),
		UnlockCost: &negative,
	})
	assert.True(t, apperror.IsValidation(err))
	assert.Zero(t, env.Gateway.Calls())
}
