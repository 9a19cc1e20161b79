package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/Cfberrio/DisciplineRift-BackEnd-sub001/api"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/notify"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/program"
	emailsvc "github.com/Cfberrio/DisciplineRift-BackEnd-sub001/services/email"
	logsvc "github.com/Cfberrio/DisciplineRift-BackEnd-sub001/services/logger"
	smssvc "github.com/Cfberrio/DisciplineRift-BackEnd-sub001/services/sms"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/storage/database"
	pgrepos "github.com/Cfberrio/DisciplineRift-BackEnd-sub001/storage/database/postgres"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewStdLogger(stdLogger)
	} else {
		rollbarLogger := logsvc.NewRollbarLogger(stdLogger, conf)
		rollbarLogger.Enable(!conf.TestMode)
		logger = rollbarLogger
	}

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()
	if err = database.Migrate(db); err != nil {
		logger.Fatal("migrating database", err)
	}

	// set up outbound transports; credential problems die here, not mid-send
	var registry notify.MailerRegistry
	if conf.Debug {
		registry = emailsvc.NewConsoleRegistry(emailsvc.NewConsoleMailer())
	} else {
		registry, err = emailsvc.NewRegistry(conf, logger)
		if err != nil {
			logger.Fatal("configuring email providers", err)
		}
	}
	var sms core.SMSSender
	if conf.SMS.AccountSID != "" {
		if sms, err = smssvc.NewTwilioSender(conf.SMS, logger); err != nil {
			logger.Fatal("configuring sms gateway", err)
		}
	}

	// set up services
	programSvc := program.NewService(pgrepos.NewProgramRepository(db), logger)
	tokens := notify.NewTokenService(conf)
	sender := notify.NewSender(registry, tokens, conf, logger)
	dispatcher := notify.NewDispatcher(sender, sms, conf.Batch, logger)
	notifySvc := notify.NewService(
		programSvc,
		sender,
		dispatcher,
		tokens,
		pgrepos.NewHistoryRepository(db),
		pgrepos.NewSubscriberRepository(db),
		logger,
	)

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Addr:       conf.Server.Addr(),
		Conf:       conf,
		Logger:     logger,
		ProgramSvc: programSvc,
		NotifySvc:  notifySvc,
	})
	go app.Start()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-app.Shutdown():
		logger.Error("shutting down after an unrecoverable error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("shutting down server", err)
	}
}
