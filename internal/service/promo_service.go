package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrPromoInvalid = errors.New("promo code invalid")

// PromoService validates user-submitted codes against a fixed allow-set. A
// matching code grants group access directly, bypassing payment.
type PromoService struct {
	codes   map[string]struct{}
	inviter Inviter
}

func NewPromoService(codes map[string]struct{}, inviter Inviter) *PromoService {
	return &PromoService{codes: codes, inviter: inviter}
}

// Redeem normalizes the code and, on a match, returns a single-use invite link.
func (s *PromoService) Redeem(ctx context.Context, code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := s.codes[normalized]; !ok {
		return "", ErrPromoInvalid
	}

	link, err := s.inviter.CreateInviteLink(ctx)
	if err != nil {
		return "", fmt.Errorf("create invite link: %w", err)
	}
	return link, nil
}
