package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/groupgate/pixbot/internal/config"
	"github.com/groupgate/pixbot/internal/database"
	"github.com/groupgate/pixbot/internal/mercadopago"
	"github.com/groupgate/pixbot/internal/repository"
	"github.com/groupgate/pixbot/internal/service"
	"github.com/groupgate/pixbot/internal/session"
	"github.com/groupgate/pixbot/internal/telegram"
	"github.com/groupgate/pixbot/internal/webhook"
	"github.com/groupgate/pixbot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("telegram bot: %v", err)
	}

	gateway := mercadopago.NewClient(cfg, logr)
	paymentRepo := repository.NewPaymentRepository(db)
	sessions := session.NewStore()
	inviter := telegram.NewInviteIssuer(botAPI, cfg.GroupChatID)

	paymentService := service.NewPaymentService(cfg.Catalog(), gateway, paymentRepo, sessions, inviter, logr)
	promoService := service.NewPromoService(cfg.PromoSet(), inviter)

	bot := telegram.NewBot(cfg, botAPI, logr, sessions, paymentService, promoService)

	webhookServer := webhook.NewServer(cfg.ListenAddr, cfg.OpsUsername, cfg.OpsPassword, logr, paymentRepo)
	go func() {
		if err := webhookServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logr.Error("webhook server stopped", "err", err)
		}
	}()

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("bot stopped", "err", err)
	}
}
