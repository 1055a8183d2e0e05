// Package usecasetest собирает сценарии поверх хранилищ в памяти для тестов.
package usecasetest

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/policy"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/listing"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
)

var Epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Prices используются во всех сценарных тестах.
var Prices = policy.Prices{
	Currency:      "EUR",
	PlayerListing: 10,
	OfferListing:  20,
	PromotionPerDay: map[valueobject.PromotionType]float64{
		valueobject.PromotionTypePremium:  5,
		valueobject.PromotionTypeFeatured: 3,
		valueobject.PromotionTypeUrgent:   2,
	},
	DefaultUnlockCost: 50,
	ExemptRoles:       []string{entity.RoleAdmin},
}

type Event struct {
	UserID uuid.UUID
	Name   string
	Data   interface{}
}

// RecordingNotifier запоминает события вместо доставки.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *RecordingNotifier) Notify(_ context.Context, userID uuid.UUID, event string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Event{UserID: userID, Name: event, Data: data})
}

func (n *RecordingNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event{}, n.events...)
}

func (n *RecordingNotifier) Count(event string) int {
	c := 0
	for _, e := range n.Events() {
		if e.Name == event {
			c++
		}
	}
	return c
}

// FakeGateway выдаёт предсказуемые ссылки на оплату.
type FakeGateway struct {
	mu    sync.Mutex
	calls int
	Err   error
}

var ErrGatewayDown = errors.New("gateway down")

func (g *FakeGateway) CreateCheckout(_ context.Context, p *entity.Payment) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.Err != nil {
		return "", g.Err
	}
	return "https://pay.test/checkout/" + p.ID.String(), nil
}

func (g *FakeGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// FakeMediaStorage хранит содержимое файлов в памяти.
type FakeMediaStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
	FailOn  string
}

func NewFakeMediaStorage() *FakeMediaStorage {
	return &FakeMediaStorage{Objects: make(map[string][]byte)}
}

func (s *FakeMediaStorage) Save(_ context.Context, listingID uuid.UUID, filename, contentType string, r io.Reader) (entity.MediaRef, error) {
	if filename == s.FailOn {
		return entity.MediaRef{}, errors.New("storage unavailable")
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return entity.MediaRef{}, err
	}
	key := "listings/" + listingID.String() + "/" + uuid.NewString() + "_" + filename
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = body
	return entity.MediaRef{Key: key, URL: "https://cdn.test/" + key, ContentType: contentType}, nil
}

func (s *FakeMediaStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	s.Deleted = append(s.Deleted, key)
	return nil
}

func (s *FakeMediaStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Objects)
}

type Env struct {
	Listings  *memory.ListingRepository
	Payments  *memory.PaymentRepository
	Gateway   *FakeGateway
	Notifier  *RecordingNotifier
	Clock     *clock.Manual
	Pricing   *policy.StaticPricing
	Checkout  *payment.CheckoutOpener
	Freshener *listing.LazyFreshener
	Media     *FakeMediaStorage
	Callback  *payment.HandleCallbackUseCase
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	logger.Silence()

	env := &Env{
		Listings: memory.NewListingRepository(),
		Payments: memory.NewPaymentRepository(),
		Gateway:  &FakeGateway{},
		Notifier: &RecordingNotifier{},
		Clock:    clock.NewManual(Epoch),
		Pricing:  policy.NewStaticPricing(Prices),
		Media:    NewFakeMediaStorage(),
	}
	env.Checkout = payment.NewCheckoutOpener(env.Payments, env.Gateway, env.Clock)
	env.Freshener = listing.NewLazyFreshener(env.Listings, env.Clock)
	env.Callback = payment.NewHandleCallbackUseCase(env.Payments, env.Listings, env.Notifier, env.Clock)
	return env
}

func User() entity.Requester {
	return entity.Requester{ID: uuid.New(), Role: "user"}
}

func Admin() entity.Requester {
	return entity.Requester{ID: uuid.New(), Role: entity.RoleAdmin}
}

func PlayerContent(title string) entity.ListingContent {
	return entity.ListingContent{
		Kind:  valueobject.ListingKindPlayer,
		Title: title,
		Sport: "football",
		Player: entity.PlayerDetails{
			FullName: "Иван Петров",
			Position: "forward",
		},
		Contact: entity.Contact{
			IsHidden: true,
			Email:    "agent@example.com",
			Phone:    "+79991234567",
		},
	}
}

func OfferContent(title string, expiry time.Time) entity.ListingContent {
	return entity.ListingContent{
		Kind:  valueobject.ListingKindOffer,
		Title: title,
		Sport: "football",
		Offer: entity.OfferDetails{
			ClubName:   "FC Test",
			Position:   "goalkeeper",
			ExpiryDate: &expiry,
		},
		Contact: entity.Contact{IsHidden: true, Email: "club@example.com"},
	}
}

// Seed сохраняет объявление владельца; mutate вызывается до записи в хранилище.
func (e *Env) Seed(t *testing.T, owner entity.Requester, content entity.ListingContent, mutate func(l *entity.Listing)) *entity.Listing {
	t.Helper()
	unlock, err := valueobject.NewMoney(Prices.DefaultUnlockCost, Prices.Currency)
	require.NoError(t, err)
	l, err := entity.NewListing(owner.ID, content, unlock, e.Clock.Now())
	require.NoError(t, err)
	if mutate != nil {
		mutate(l)
	}
	require.NoError(t, e.Listings.Create(context.Background(), l))
	return l
}

// SeedPaid сохраняет оплаченное активное объявление.
func (e *Env) SeedPaid(t *testing.T, owner entity.Requester, content entity.ListingContent) *entity.Listing {
	t.Helper()
	return e.Seed(t, owner, content, func(l *entity.Listing) {
		l.MarkExempt(e.Clock.Now())
	})
}

// Settle подтверждает платёж так, как это сделал бы шлюз.
func (e *Env) Settle(t *testing.T, paymentID uuid.UUID) *payment.SettlementResult {
	t.Helper()
	res, err := e.Callback.Execute(context.Background(), payment.CallbackInput{
		PaymentID: paymentID,
		Status:    valueobject.PaymentStatusPaid,
	})
	require.NoError(t, err)
	return res
}

func (e *Env) Reload(t *testing.T, id uuid.UUID) *entity.Listing {
	t.Helper()
	l, err := e.Listings.FindByID(context.Background(), id)
	require.NoError(t, err)
	return l
}
