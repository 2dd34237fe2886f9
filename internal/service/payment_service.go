package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/groupgate/pixbot/internal/mercadopago"
	"github.com/groupgate/pixbot/internal/models"
	"github.com/groupgate/pixbot/internal/session"
)

var ErrUnknownPlan = errors.New("unknown plan")
var ErrNoPayment = errors.New("no payment found")

const (
	statusPending  = "pending"
	statusApproved = "approved"

	paymentMethodPIX = "pix"
)

// Gateway is the payment-gateway surface the service depends on. Timeouts and
// cancellation are the gateway client's responsibility.
type Gateway interface {
	CreatePayment(ctx context.Context, req mercadopago.CreateRequest) (*mercadopago.Payment, error)
	GetPayment(ctx context.Context, id string) (*mercadopago.Payment, error)
}

type PaymentStore interface {
	Upsert(ctx context.Context, payment *models.PaymentRecord) error
}

// Inviter issues a single-use invite link (member limit 1) to the private group.
type Inviter interface {
	CreateInviteLink(ctx context.Context) (string, error)
}

// Intent is the user-presentable result of creating a payment intent.
type Intent struct {
	PaymentID string
	Plan      models.Plan
	QRCode    string
	QRImage   []byte
}

// StatusResult reports the gateway's current status for the user's newest
// payment. InviteLink is set only when the payment is approved.
type StatusResult struct {
	PaymentID  string
	Status     string
	InviteLink string
}

type PaymentService struct {
	catalog  models.Catalog
	gateway  Gateway
	store    PaymentStore
	sessions *session.Store
	inviter  Inviter
	log      *slog.Logger
}

func NewPaymentService(catalog models.Catalog, gateway Gateway, store PaymentStore, sessions *session.Store, inviter Inviter, log *slog.Logger) *PaymentService {
	return &PaymentService{
		catalog:  catalog,
		gateway:  gateway,
		store:    store,
		sessions: sessions,
		inviter:  inviter,
		log:      log,
	}
}

// CreateIntent opens a PIX payment intent for the chosen plan, records it, and
// remembers it as the user's newest payment. A failed record write is logged
// and swallowed: the in-memory payment id still lets the status check proceed.
func (s *PaymentService) CreateIntent(ctx context.Context, userID int64, key models.PlanKey) (*Intent, error) {
	plan, ok := s.catalog.ByKey(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, key)
	}

	payment, err := s.gateway.CreatePayment(ctx, mercadopago.CreateRequest{
		Amount:          plan.Amount,
		Description:     fmt.Sprintf("%s user:%d", strings.ToUpper(string(key)), userID),
		PaymentMethodID: paymentMethodPIX,
		PayerEmail:      fmt.Sprintf("user%d@mail.com", userID),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	record := &models.PaymentRecord{
		PaymentID: payment.ID,
		UserID:    strconv.FormatInt(userID, 10),
		Plan:      key,
		Amount:    plan.Amount,
		Status:    statusPending,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		s.log.Error("persist payment record", "payment_id", payment.ID, "err", err)
	}

	s.sessions.SetLastPayment(userID, payment.ID)

	intent := &Intent{
		PaymentID: payment.ID,
		Plan:      plan,
		QRCode:    payment.QRCode,
	}
	if payment.QRCodeBase64 != "" {
		img, err := base64.StdEncoding.DecodeString(payment.QRCodeBase64)
		if err != nil {
			s.log.Error("decode qr image", "payment_id", payment.ID, "err", err)
		} else {
			intent.QRImage = img
		}
	}
	return intent, nil
}

// CheckStatus looks up the user's newest payment with the gateway. No gateway
// call is made for a user with no recorded intent.
func (s *PaymentService) CheckStatus(ctx context.Context, userID int64) (*StatusResult, error) {
	paymentID, ok := s.sessions.LastPayment(userID)
	if !ok {
		return nil, ErrNoPayment
	}

	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment status: %w", err)
	}

	result := &StatusResult{
		PaymentID: paymentID,
		Status:    payment.Status,
	}
	if payment.Status == statusApproved {
		link, err := s.inviter.CreateInviteLink(ctx)
		if err != nil {
			return nil, fmt.Errorf("create invite link: %w", err)
		}
		result.InviteLink = link
	}
	return result, nil
}
