package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/groupgate/pixbot/internal/config"
	"github.com/groupgate/pixbot/internal/models"
	"github.com/groupgate/pixbot/internal/service"
	"github.com/groupgate/pixbot/internal/session"
)

const welcomeText = `⚠️Bem-vindo à irmandade mais foda do Brasil.🔞

🔱Você está quase lá 💥
👇🏼Escolha Um Plano👇🏼`

const (
	callbackBuyPrefix   = "buy_"
	callbackPromo       = "promo"
	callbackCheckStatus = "check_payment"
)

type Bot struct {
	cfg      config.Config
	api      *tgbotapi.BotAPI
	log      *slog.Logger
	catalog  models.Catalog
	sessions *session.Store
	payments *service.PaymentService
	promo    *service.PromoService
}

func NewBot(cfg config.Config, api *tgbotapi.BotAPI, log *slog.Logger, sessions *session.Store, payments *service.PaymentService, promo *service.PromoService) *Bot {
	return &Bot{
		cfg:      cfg,
		api:      api,
		log:      log,
		catalog:  cfg.Catalog(),
		sessions: sessions,
		payments: payments,
		promo:    promo,
	}
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("telegram bot started")

	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			} else if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
			}
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if msg.IsCommand() {
		if msg.Command() == "start" {
			b.handleStart(ctx, msg)
		}
		return
	}

	if msg.Text == "" {
		return
	}

	// Free text is only meaningful while the user owes us a promo code;
	// anything else falls through with no reply.
	if !b.sessions.AwaitingPromo(msg.From.ID) {
		return
	}
	b.sessions.SetAwaitingPromo(msg.From.ID, false)

	link, err := b.promo.Redeem(ctx, msg.Text)
	if err != nil {
		if errors.Is(err, service.ErrPromoInvalid) {
			b.sendText(msg.Chat.ID, "❌ Código inválido.")
			return
		}
		b.log.Error("redeem promo", "user", msg.From.ID, "err", err)
		b.sendText(msg.Chat.ID, "⚠️ Não foi possível gerar o convite agora. Tente novamente.")
		return
	}
	b.sendText(msg.Chat.ID, link)
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(b.cfg.StartImageURL))
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error("send welcome photo", "err", err)
	}

	menu := tgbotapi.NewMessage(chatID, welcomeText)
	menu.ReplyMarkup = b.planKeyboard()
	if _, err := b.api.Send(menu); err != nil {
		b.log.Error("send plan menu", "err", err)
	}

	counterMsg := tgbotapi.NewMessage(chatID, counterText(b.cfg.CounterStart))
	counterMsg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(counterMsg)
	if err != nil {
		b.log.Error("send counter message", "err", err)
		return
	}

	c := newCounter(b.cfg.CounterStart, b.cfg.CounterCeiling, b.cfg.CounterTick, func(text string) error {
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, text)
		edit.ParseMode = tgbotapi.ModeMarkdown
		_, err := b.api.Send(edit)
		return err
	})
	go c.run(ctx)
}

func (b *Bot) planKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(b.catalog)+2)
	for _, plan := range b.catalog {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(plan.Label, callbackBuyPrefix+string(plan.Key)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎟️ Código", callbackPromo),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Já paguei", callbackCheckStatus),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Acknowledge before any side effect so the client's loading spinner
	// clears no matter how long the gateway takes.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Error("callback ack", "err", err)
	}

	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID

	switch {
	case strings.HasPrefix(cb.Data, callbackBuyPrefix):
		b.handleBuy(ctx, chatID, userID, models.PlanKey(strings.TrimPrefix(cb.Data, callbackBuyPrefix)))
	case cb.Data == callbackPromo:
		b.sessions.SetAwaitingPromo(userID, true)
		b.sendText(chatID, "🎟️ Envie o código:")
	case cb.Data == callbackCheckStatus:
		b.handleCheckPayment(ctx, chatID, userID)
	}
}

func (b *Bot) handleBuy(ctx context.Context, chatID, userID int64, key models.PlanKey) {
	intent, err := b.payments.CreateIntent(ctx, userID, key)
	if err != nil {
		b.log.Error("create payment intent", "user", userID, "plan", key, "err", err)
		b.sendText(chatID, "❌ Não foi possível gerar o pagamento agora. Tente novamente.")
		return
	}

	b.sendMarkdown(chatID, fmt.Sprintf("💰 *%s*\n\n🪙 *PIX Copia e Cola:*\n`%s`", intent.Plan.Label, intent.QRCode))

	if len(intent.QRImage) > 0 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
			Name:  "qr.png",
			Bytes: intent.QRImage,
		})
		if _, err := b.api.Send(photo); err != nil {
			b.log.Error("send qr image", "err", err)
		}
	}
}

func (b *Bot) handleCheckPayment(ctx context.Context, chatID, userID int64) {
	result, err := b.payments.CheckStatus(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrNoPayment) {
			b.sendMarkdown(chatID, "❌ Nenhum pagamento encontrado.")
			return
		}
		b.log.Error("check payment status", "user", userID, "err", err)
		b.sendText(chatID, "⚠️ Não foi possível consultar o pagamento agora. Tente novamente.")
		return
	}

	if result.InviteLink != "" {
		b.sendMarkdown(chatID, fmt.Sprintf("✅ *Pagamento aprovado!*\n%s", result.InviteLink))
		return
	}
	b.sendMarkdown(chatID, fmt.Sprintf("⏳ Status atual: *%s*", result.Status))
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send text", "err", err)
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send text", "err", err)
	}
}
