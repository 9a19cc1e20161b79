package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/notify"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/storage/database"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db        *sqlx.DB
	notifySvc *notify.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate          - apply pending database migrations")
	fmt.Println("  remind-coaches   - email coaches whose sessions lack attendance today")
	fmt.Println("  notify-absences  - email parents of students marked absent today")
}

// run dispatches the cron-invocable equivalents of the reminder endpoints.
func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	switch args[1] {
	case "migrate":
		return database.Migrate(cli.db)
	case "remind-coaches":
		res, err := cli.notifySvc.SendCoachReminders(ctx)
		if err != nil {
			return err
		}
		return printResult(res)
	case "notify-absences":
		res, err := cli.notifySvc.SendParentAbsenceNotifications(ctx)
		if err != nil {
			return err
		}
		return printResult(res)
	default:
		cli.printUsage()
		return errHelp
	}
}

func printResult(res notify.EmailResult) error {
	fmt.Printf("sent: %d, failed: %d\n", res.Sent, res.Failed)
	for _, msg := range res.Errors {
		fmt.Printf("  %s\n", msg)
	}
	if !res.Success {
		return fmt.Errorf("%d of %d sends failed", res.Failed, res.Sent+res.Failed)
	}
	return nil
}
