package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrotrack/internal/auth"
	"agrotrack/internal/config"
	"agrotrack/internal/db"
	"agrotrack/internal/httpserver"
	"agrotrack/internal/livestock"
	"agrotrack/internal/logging"
	"agrotrack/internal/mail"
	"agrotrack/internal/upload"
)

func main() {
	ctx := context.Background()
	logger := logging.New()

	cfg := config.Load()

	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userStore := auth.NewStore(dbConn, cfg.BcryptCost)
	if err := userStore.SeedFromFile(ctx, cfg.UsersPath); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	blacklist := auth.NewBlacklistStore(dbConn)

	var mailer auth.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:         cfg.SMTPHost,
			Port:         cfg.SMTPPort,
			Username:     cfg.SMTPUsername,
			Password:     cfg.SMTPPassword,
			From:         cfg.MailFrom,
			ResetURLBase: cfg.ResetURLBase,
			SkipVerify:   cfg.SMTPSkipVerify,
		})
	} else {
		mailer = &mail.LogMailer{Logger: logger}
	}

	authSvc := auth.NewService(userStore, blacklist, mailer,
		cfg.JWTSecret, cfg.TokenTTL, cfg.ResetTokenTTL, cfg.ResetCooldown, cfg.BcryptCost)

	files, err := upload.NewStore(cfg.UploadRoot)
	if err != nil {
		log.Fatalf("init upload store: %v", err)
	}
	store := livestock.NewStore(dbConn)

	handler := httpserver.NewRouter(logger, authSvc, store, files)
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Expired blacklist rows are dead weight; sweep them hourly.
	purgeCtx, stopPurge := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-purgeCtx.Done():
				return
			case <-ticker.C:
				if n, err := blacklist.DeleteExpired(purgeCtx); err != nil {
					logger.Error("purge blacklist", "err", err)
				} else if n > 0 {
					logger.Info("purged expired blacklist tokens", "count", n)
				}
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	stopPurge()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
