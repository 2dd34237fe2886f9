package service

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/groupgate/pixbot/internal/mercadopago"
	"github.com/groupgate/pixbot/internal/models"
	"github.com/groupgate/pixbot/internal/session"
)

type fakeGateway struct {
	createFn    func(req mercadopago.CreateRequest) (*mercadopago.Payment, error)
	getFn       func(id string) (*mercadopago.Payment, error)
	createCalls []mercadopago.CreateRequest
	getCalls    []string
}

func (g *fakeGateway) CreatePayment(_ context.Context, req mercadopago.CreateRequest) (*mercadopago.Payment, error) {
	g.createCalls = append(g.createCalls, req)
	return g.createFn(req)
}

func (g *fakeGateway) GetPayment(_ context.Context, id string) (*mercadopago.Payment, error) {
	g.getCalls = append(g.getCalls, id)
	return g.getFn(id)
}

type fakeStore struct {
	err     error
	records []models.PaymentRecord
}

func (s *fakeStore) Upsert(_ context.Context, rec *models.PaymentRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, *rec)
	return nil
}

type fakeInviter struct {
	link  string
	err   error
	calls int
}

func (i *fakeInviter) CreateInviteLink(_ context.Context) (string, error) {
	i.calls++
	return i.link, i.err
}

func testCatalog() models.Catalog {
	return models.Catalog{
		{Key: models.PlanMonthly, Label: "💳 Mensal — R$15", Amount: 15.00},
		{Key: models.PlanLifetime, Label: "🔥 Vitalício — R$19", Amount: 19.00},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(gw *fakeGateway, store *fakeStore, inviter *fakeInviter) (*PaymentService, *session.Store) {
	sessions := session.NewStore()
	return NewPaymentService(testCatalog(), gw, store, sessions, inviter, discardLogger()), sessions
}

func TestCreateIntentRecordsCatalogAmount(t *testing.T) {
	for _, plan := range testCatalog() {
		gw := &fakeGateway{
			createFn: func(mercadopago.CreateRequest) (*mercadopago.Payment, error) {
				return &mercadopago.Payment{ID: "PMT1", Status: "pending", QRCode: "qr-text"}, nil
			},
		}
		store := &fakeStore{}
		svc, sessions := newTestService(gw, store, &fakeInviter{})

		intent, err := svc.CreateIntent(context.Background(), 42, plan.Key)
		require.NoError(t, err)
		require.Equal(t, "PMT1", intent.PaymentID)
		require.Equal(t, plan.Label, intent.Plan.Label)
		require.Equal(t, "qr-text", intent.QRCode)

		require.Len(t, store.records, 1)
		rec := store.records[0]
		require.Equal(t, plan.Amount, rec.Amount)
		require.Equal(t, plan.Key, rec.Plan)
		require.Equal(t, "42", rec.UserID)
		require.Equal(t, "pending", rec.Status)
		require.NotZero(t, rec.CreatedAt)

		last, ok := sessions.LastPayment(42)
		require.True(t, ok)
		require.Equal(t, "PMT1", last)
	}
}

func TestCreateIntentRequestShape(t *testing.T) {
	gw := &fakeGateway{
		createFn: func(mercadopago.CreateRequest) (*mercadopago.Payment, error) {
			return &mercadopago.Payment{ID: "PMT1", QRCode: "qr"}, nil
		},
	}
	svc, _ := newTestService(gw, &fakeStore{}, &fakeInviter{})

	_, err := svc.CreateIntent(context.Background(), 42, models.PlanMonthly)
	require.NoError(t, err)

	require.Len(t, gw.createCalls, 1)
	req := gw.createCalls[0]
	require.Equal(t, 15.00, req.Amount)
	require.Equal(t, "MENSAL user:42", req.Description)
	require.Equal(t, "pix", req.PaymentMethodID)
	require.Equal(t, "user42@mail.com", req.PayerEmail)
}

func TestCreateIntentUnknownPlan(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw, &fakeStore{}, &fakeInviter{})

	_, err := svc.CreateIntent(context.Background(), 42, models.PlanKey("weekly"))
	require.ErrorIs(t, err, ErrUnknownPlan)
	require.Empty(t, gw.createCalls)
}

func TestCreateIntentGatewayFailure(t *testing.T) {
	gw := &fakeGateway{
		createFn: func(mercadopago.CreateRequest) (*mercadopago.Payment, error) {
			return nil, mercadopago.ErrGateway
		},
	}
	store := &fakeStore{}
	svc, sessions := newTestService(gw, store, &fakeInviter{})

	_, err := svc.CreateIntent(context.Background(), 42, models.PlanMonthly)
	require.ErrorIs(t, err, mercadopago.ErrGateway)
	require.Empty(t, store.records)

	_, ok := sessions.LastPayment(42)
	require.False(t, ok)
}

func TestCreateIntentStoreFailureSwallowed(t *testing.T) {
	gw := &fakeGateway{
		createFn: func(mercadopago.CreateRequest) (*mercadopago.Payment, error) {
			return &mercadopago.Payment{ID: "PMT1", QRCode: "qr"}, nil
		},
	}
	store := &fakeStore{err: errors.New("disk full")}
	svc, sessions := newTestService(gw, store, &fakeInviter{})

	intent, err := svc.CreateIntent(context.Background(), 42, models.PlanMonthly)
	require.NoError(t, err)
	require.Equal(t, "PMT1", intent.PaymentID)

	last, ok := sessions.LastPayment(42)
	require.True(t, ok)
	require.Equal(t, "PMT1", last)
}

func TestCreateIntentDecodesQRImage(t *testing.T) {
	img := []byte{0x89, 'P', 'N', 'G'}
	gw := &fakeGateway{
		createFn: func(mercadopago.CreateRequest) (*mercadopago.Payment, error) {
			return &mercadopago.Payment{
				ID:           "PMT1",
				QRCode:       "qr",
				QRCodeBase64: base64.StdEncoding.EncodeToString(img),
			}, nil
		},
	}
	svc, _ := newTestService(gw, &fakeStore{}, &fakeInviter{})

	intent, err := svc.CreateIntent(context.Background(), 42, models.PlanMonthly)
	require.NoError(t, err)
	require.Equal(t, img, intent.QRImage)
}

func TestCreateIntentBadQRImageIgnored(t *testing.T) {
	gw := &fakeGateway{
		createFn: func(mercadopago.CreateRequest) (*mercadopago.Payment, error) {
			return &mercadopago.Payment{ID: "PMT1", QRCode: "qr", QRCodeBase64: "!!not-base64!!"}, nil
		},
	}
	svc, _ := newTestService(gw, &fakeStore{}, &fakeInviter{})

	intent, err := svc.CreateIntent(context.Background(), 42, models.PlanMonthly)
	require.NoError(t, err)
	require.Nil(t, intent.QRImage)
}

func TestCheckStatusNoPayment(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw, &fakeStore{}, &fakeInviter{})

	_, err := svc.CheckStatus(context.Background(), 42)
	require.ErrorIs(t, err, ErrNoPayment)
	require.Empty(t, gw.getCalls)
}

func TestCheckStatusApprovedGrantsInvite(t *testing.T) {
	gw := &fakeGateway{
		getFn: func(string) (*mercadopago.Payment, error) {
			return &mercadopago.Payment{ID: "PMT1", Status: "approved"}, nil
		},
	}
	inviter := &fakeInviter{link: "https://t.me/+abc"}
	svc, sessions := newTestService(gw, &fakeStore{}, inviter)
	sessions.SetLastPayment(42, "PMT1")

	result, err := svc.CheckStatus(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, "approved", result.Status)
	require.Equal(t, "https://t.me/+abc", result.InviteLink)
	require.Equal(t, 1, inviter.calls)
}

func TestCheckStatusPendingReturnsLiteralStatus(t *testing.T) {
	for _, status := range []string{"pending", "rejected", "in_process"} {
		gw := &fakeGateway{
			getFn: func(string) (*mercadopago.Payment, error) {
				return &mercadopago.Payment{ID: "PMT1", Status: status}, nil
			},
		}
		inviter := &fakeInviter{link: "https://t.me/+abc"}
		svc, sessions := newTestService(gw, &fakeStore{}, inviter)
		sessions.SetLastPayment(42, "PMT1")

		result, err := svc.CheckStatus(context.Background(), 42)
		require.NoError(t, err)
		require.Equal(t, status, result.Status)
		require.Empty(t, result.InviteLink)
		require.Zero(t, inviter.calls)
	}
}

func TestCheckStatusUsesNewestPayment(t *testing.T) {
	ids := []string{"PMT1", "PMT2"}
	var created int
	gw := &fakeGateway{
		createFn: func(mercadopago.CreateRequest) (*mercadopago.Payment, error) {
			id := ids[created]
			created++
			return &mercadopago.Payment{ID: id, QRCode: "qr"}, nil
		},
		getFn: func(string) (*mercadopago.Payment, error) {
			return &mercadopago.Payment{Status: "pending"}, nil
		},
	}
	svc, _ := newTestService(gw, &fakeStore{}, &fakeInviter{})

	_, err := svc.CreateIntent(context.Background(), 42, models.PlanMonthly)
	require.NoError(t, err)
	_, err = svc.CreateIntent(context.Background(), 42, models.PlanLifetime)
	require.NoError(t, err)

	_, err = svc.CheckStatus(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, []string{"PMT2"}, gw.getCalls)
}

func TestCheckStatusGatewayFailure(t *testing.T) {
	gw := &fakeGateway{
		getFn: func(string) (*mercadopago.Payment, error) {
			return nil, mercadopago.ErrGateway
		},
	}
	svc, sessions := newTestService(gw, &fakeStore{}, &fakeInviter{})
	sessions.SetLastPayment(42, "PMT1")

	_, err := svc.CheckStatus(context.Background(), 42)
	require.ErrorIs(t, err, mercadopago.ErrGateway)
	require.NotErrorIs(t, err, ErrNoPayment)
}

func TestCheckStatusInviteFailure(t *testing.T) {
	gw := &fakeGateway{
		getFn: func(string) (*mercadopago.Payment, error) {
			return &mercadopago.Payment{Status: "approved"}, nil
		},
	}
	inviter := &fakeInviter{err: errors.New("bot lacks permission")}
	svc, sessions := newTestService(gw, &fakeStore{}, inviter)
	sessions.SetLastPayment(42, "PMT1")

	_, err := svc.CheckStatus(context.Background(), 42)
	require.Error(t, err)
}
