package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// InviteIssuer creates single-use invite links (member limit 1) for the
// configured private group. It satisfies service.Inviter.
type InviteIssuer struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewInviteIssuer(api *tgbotapi.BotAPI, chatID int64) *InviteIssuer {
	return &InviteIssuer{api: api, chatID: chatID}
}

func (i *InviteIssuer) CreateInviteLink(ctx context.Context) (string, error) {
	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: i.chatID},
		MemberLimit: 1,
	}

	resp, err := i.api.Request(cfg)
	if err != nil {
		return "", fmt.Errorf("create chat invite link: %w", err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("decode invite link: %w", err)
	}
	if link.InviteLink == "" {
		return "", fmt.Errorf("empty invite link in response")
	}
	return link.InviteLink, nil
}
