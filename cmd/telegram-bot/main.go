package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/futig/template-chat/internal/builder"
	"go.uber.org/zap"
)

func main() {
	bot, logger, err := builder.BuildTelegramBot()
	if err != nil {
		log.Fatalf("template-chat: build telegram bot: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := bot.Start(ctx); err != nil {
		logger.Fatal("telegram bot error", zap.Error(err))
	}

	sig := <-sigChan
	logger.Info("received shutdown signal",
		zap.String("signal", sig.String()))

	if err := bot.Stop(); err != nil {
		logger.Error("error stopping bot",
			zap.Error(err))
	}
	cancel()
	logger.Info("telegram bot stopped gracefully")
}
