package main

import (
	"log"
	"os"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/notify"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/program"
	emailsvc "github.com/Cfberrio/DisciplineRift-BackEnd-sub001/services/email"
	logsvc "github.com/Cfberrio/DisciplineRift-BackEnd-sub001/services/logger"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/storage/database"
	pgrepos "github.com/Cfberrio/DisciplineRift-BackEnd-sub001/storage/database/postgres"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)
	appLogger := logsvc.NewStdLogger(logger)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()

	var registry notify.MailerRegistry
	if conf.Debug {
		registry = emailsvc.NewConsoleRegistry(emailsvc.NewConsoleMailer())
	} else {
		registry, err = emailsvc.NewRegistry(conf, appLogger)
		errAndDie(err)
	}

	programSvc := program.NewService(pgrepos.NewProgramRepository(db), appLogger)
	tokens := notify.NewTokenService(conf)
	sender := notify.NewSender(registry, tokens, conf, appLogger)
	dispatcher := notify.NewDispatcher(sender, nil, conf.Batch, appLogger)
	notifySvc := notify.NewService(
		programSvc,
		sender,
		dispatcher,
		tokens,
		pgrepos.NewHistoryRepository(db),
		pgrepos.NewSubscriberRepository(db),
		appLogger,
	)

	// start CLI
	cli := commandLine{
		db:        db,
		notifySvc: notifySvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
