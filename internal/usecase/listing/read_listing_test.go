package listing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/listing"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/paywall"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/usecasetest"
)

func newGet(env *usecasetest.Env) *listing.GetListingUseCase {
	return listing.NewGetListingUseCase(env.Listings, env.Freshener, env.Clock)
}

func newList(env *usecasetest.Env) *listing.ListListingsUseCase {
	return listing.NewListListingsUseCase(env.Listings, env.Freshener, env.Clock)
}

func titles(views []paywall.ListingView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Title)
	}
	return out
}

func TestGetListing_MasksHiddenContact(t *testing.T) {
	env := usecasetest.NewEnv(t)
	l := env.SeedPaid(t, usecasetest.User(), usecasetest.PlayerContent("Нападающий ищет клуб"))

	view, err := newGet(env).Execute(context.Background(), l.ID, usecasetest.User())
	require.NoError(t, err)

	assert.Equal(t, paywall.ContactView{IsHidden: true, UnlockCost: 50}, view.Contact)
	assert.False(t, view.CanViewContact)
	assert.Nil(t, view.UnlockCount)

	anonymous, err := newGet(env).Execute(context.Background(), l.ID, entity.Requester{})
	require.NoError(t, err)
	assert.Equal(t, paywall.ContactView{IsHidden: true, UnlockCost: 50}, anonymous.Contact)
}

func TestGetListing_OwnerSeesContact(t *testing.T) {
	env := usecasetest.NewEnv(t)
	owner := usecasetest.User()
	l := env.SeedPaid(t, owner, usecasetest.PlayerContent("Нападающий ищет клуб"))

	view, err := newGet(env).Execute(context.Background(), l.ID, owner)
	require.NoError(t, err)

	assert.True(t, view.IsOwner)
	assert.True(t, view.CanViewContact)
	assert.Equal(t, "agent@example.com", view.Contact.Email)
	require.NotNil(t, view.UnlockCount)
	assert.Zero(t, *view.UnlockCount)
}

func TestGetListing_UnpaidHiddenFromPublic(t *testing.T) {
	env := usecasetest.NewEnv(t)
	owner := usecasetest.User()
	l := env.Seed(t, owner, usecasetest.PlayerContent("Нападающий ищет клуб"), nil)

	_, err := newGet(env).Execute(context.Background(), l.ID, usecasetest.User())
	assert.ErrorIs(t, err, apperror.ErrListingNotFound)

	view, err := newGet(env).Execute(context.Background(), l.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, valueobject.LifecycleStatusPendingPayment, view.LifecycleStatus)
}

func TestGetListing_CountsViewsExceptOwner(t *testing.T) {
	env := usecasetest.NewEnv(t)
	owner := usecasetest.User()
	l := env.SeedPaid(t, owner, usecasetest.PlayerContent("Нападающий ищет клуб"))
	uc := newGet(env)

	_, err := uc.Execute(context.Background(), l.ID, owner)
	require.NoError(t, err)
	view, err := uc.Execute(context.Background(), l.ID, usecasetest.User())
	require.NoError(t, err)
	_, err = uc.Execute(context.Background(), l.ID, entity.Requester{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), view.Statistics.Views)
	assert.Equal(t, int64(2), env.Reload(t, l.ID).Statistics.Views)
}

func TestGetListing_LazyExpiry(t *testing.T) {
	env := usecasetest.NewEnv(t)
	owner := usecasetest.User()
	l := env.SeedPaid(t, owner, usecasetest.OfferContent("Клуб ищет вратаря", usecasetest.Epoch.Add(24*time.Hour)))

	view, err := newGet(env).Execute(context.Background(), l.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, valueobject.LifecycleStatusActive, view.LifecycleStatus)

	env.Clock.Advance(48 * time.Hour)

	view, err = newGet(env).Execute(context.Background(), l.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, valueobject.LifecycleStatusExpired, view.LifecycleStatus)
	assert.Equal(t, valueobject.LifecycleStatusExpired, env.Reload(t, l.ID).Status)

	items, total, err := newList(env).Execute(context.Background(), listing.ListListingsInput{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestListListings_ReapsExpiredOffers(t *testing.T) {
	env := usecasetest.NewEnv(t)
	owner := usecasetest.User()
	l := env.SeedPaid(t, owner, usecasetest.OfferContent("Клуб ищет вратаря", usecasetest.Epoch.Add(time.Hour)))
	env.SeedPaid(t, owner, usecasetest.PlayerContent("Нападающий ищет клуб"))

	env.Clock.Advance(2 * time.Hour)
	items, total, err := newList(env).Execute(context.Background(), listing.ListListingsInput{})
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	assert.Equal(t, []string{"Нападающий ищет клуб"}, titles(items))
	assert.Equal(t, valueobject.LifecycleStatusExpired, env.Reload(t, l.ID).Status)
}

func TestListListings_PromotedFirst(t *testing.T) {
	env := usecasetest.NewEnv(t)
	owner := usecasetest.User()

	a := env.SeedPaid(t, owner, usecasetest.PlayerContent("Listing A"))
	env.Clock.Advance(time.Hour)
	b := env.SeedPaid(t, owner, usecasetest.PlayerContent("Listing B"))
	env.Clock.Advance(time.Hour)
	env.SeedPaid(t, owner, usecasetest.PlayerContent("Listing C"))
	env.Clock.Advance(time.Hour)
	env.SeedPaid(t, owner, usecasetest.PlayerContent("Listing D"))
	env.Clock.Advance(time.Hour)

	now := env.Clock.Now()
	_, err := env.Listings.ApplyPromotion(context.Background(), b.ID, entity.NewPromotion(valueobject.PromotionTypeFeatured, 7, nil, now), now)
	require.NoError(t, err)
	_, err = env.Listings.ApplyPromotion(context.Background(), a.ID, entity.NewPromotion(valueobject.PromotionTypePremium, 7, nil, now), now)
	require.NoError(t, err)

	items, total, err := newList(env).Execute(context.Background(), listing.ListListingsInput{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"Listing A", "Listing B", "Listing D", "Listing C"}, titles(items))
	assert.True(t, items[0].Promotion.IsPromoted)
	assert.False(t, items[2].Promotion.IsPromoted)

	// После окончания окна продвижения порядок определяется датой создания.
	env.Clock.Advance(8 * 24 * time.Hour)
	items, _, err = newList(env).Execute(context.Background(), listing.ListListingsInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Listing D", "Listing C", "Listing B", "Listing A"}, titles(items))
	assert.False(t, items[3].Promotion.IsPromoted)
}

func TestListListings_PublicOnly(t *testing.T) {
	env := usecasetest.NewEnv(t)
	owner := usecasetest.User()
	env.Seed(t, owner, usecasetest.PlayerContent("Ждёт оплаты"), nil)
	deleted := env.SeedPaid(t, owner, usecasetest.PlayerContent("Удалённое"))
	_, err := env.Listings.Deactivate(context.Background(), deleted.ID, env.Clock.Now())
	require.NoError(t, err)
	env.SeedPaid(t, owner, usecasetest.PlayerContent("Видимое"))

	items, total, err := newList(env).Execute(context.Background(), listing.ListListingsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []string{"Видимое"}, titles(items))

	mine, total, err := listing.NewListMyListingsUseCase(env.Listings, env.Freshener, env.Clock).
		Execute(context.Background(), owner, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, mine, 3)
}

func TestListListings_Filters(t *testing.T) {
	env := usecasetest.NewEnv(t)
	owner := usecasetest.User()
	other := usecasetest.User()
	env.SeedPaid(t, owner, usecasetest.PlayerContent("Игрок владельца"))
	env.SeedPaid(t, owner, usecasetest.OfferContent("Предложение владельца", usecasetest.Epoch.AddDate(0, 1, 0)))
	env.SeedPaid(t, other, usecasetest.PlayerContent("Чужой игрок"))
	uc := newList(env)

	items, _, err := uc.Execute(context.Background(), listing.ListListingsInput{Kind: "offer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Предложение владельца"}, titles(items))

	items, _, err = uc.Execute(context.Background(), listing.ListListingsInput{OwnerID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Чужой игрок"}, titles(items))

	items, total, err := uc.Execute(context.Background(), listing.ListListingsInput{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 1)

	_, _, err = uc.Execute(context.Background(), listing.ListListingsInput{Kind: "coach"})
	assert.True(t, apperror.IsValidation(err))

	_, _, err = uc.Execute(context.Background(), listing.ListListingsInput{SortBy: "price"})
	assert.True(t, apperror.IsValidation(err))

	_, _, err = uc.Execute(context.Background(), listing.ListListingsInput{SortBy: repository.SortViews})
	assert.NoError(t, err)
}

func TestListMyListings_RequiresAuth(t *testing.T) {
	env := usecasetest.NewEnv(t)

	_, _, err := listing.NewListMyListingsUseCase(env.Listings, env.Freshener, env.Clock).
		Execute(context.Background(), entity.Requester{}, 10, 0)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
