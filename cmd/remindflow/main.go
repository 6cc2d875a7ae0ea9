package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"remindflow/internal/api"
	"remindflow/internal/broadcast"
	"remindflow/internal/config"
	notifyhandler "remindflow/internal/handlers/notify"
	recurhandler "remindflow/internal/handlers/recurrence"
	"remindflow/internal/mailer"
	"remindflow/internal/pubsub"
	"remindflow/internal/scheduler"
	"remindflow/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=journal_mode(WAL)", cfg.DB.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()
	db.SetMaxOpenConns(1) // SQLite single writer

	if err := store.EnsureSchema(db); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}
	st := store.New(db)

	topics := pubsub.Topics{
		TaskEvents:  cfg.Broker.TaskTopic,
		Reminders:   cfg.Broker.ReminderTopic,
		TaskUpdates: cfg.Broker.UpdateTopic,
	}
	publisher := pubsub.NewPublisher(cfg.Broker.BaseURL(), cfg.Broker.PubsubName, topics)

	hub := broadcast.NewHub()

	// Email degrades to disabled when nothing is configured, but broken
	// credentials for a configured provider are a startup failure.
	mail, err := mailer.NewFromConfig(mailer.Config{
		SendGridKey:   cfg.Email.SendGridKey,
		MailgunDomain: cfg.Email.MailgunDomain,
		MailgunKey:    cfg.Email.MailgunKey,
		SMTPHost:      cfg.Email.SMTPHost,
		SMTPPort:      cfg.Email.SMTPPort,
		SMTPUser:      cfg.Email.SMTPUser,
		SMTPPass:      cfg.Email.SMTPPass,
		From:          cfg.Email.From,
		FromName:      cfg.Email.FromName,
	})
	if err != nil {
		if !errors.Is(err, mailer.ErrNoProvider) {
			log.Fatal().Err(err).Msg("email provider setup")
		}
		if cfg.Email.Configured() {
			log.Fatal().Err(err).Msg("email credentials present but no provider usable")
		}
		log.Warn().Msg("no email provider configured, email channel disabled")
	}

	scan, err := scheduler.NewService(st, st, publisher, cfg.Scan.Interval(), cfg.Scan.Window())
	if err != nil {
		log.Fatal().Err(err).Msg("build reminder scan")
	}

	recurrence := recurhandler.NewHandler(st)
	notify := notifyhandler.NewHandler(hub, mail)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := scan.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start reminder scan")
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewServer(cfg.Broker.PubsubName, topics, recurrence, notify, hub, mail),
	}
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Info().Msg("shutting down")

	scan.Stop()
	cancel()
	ctxTimeout, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()
	_ = srv.Shutdown(ctxTimeout)
}
