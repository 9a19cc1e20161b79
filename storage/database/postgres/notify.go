package pgrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/notify"
)

type historyRepository struct {
	db *sqlx.DB
}

var _ notify.HistoryRepository = (*historyRepository)(nil)

func NewHistoryRepository(db *sqlx.DB) *historyRepository {
	return &historyRepository{db: db}
}

func (repo *historyRepository) AppendReminder(ctx context.Context, rec notify.ReminderHistoryRecord) error {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO reminder_emails (type, recipient, content, date)
		 VALUES (:type, :recipient, :content, :date)`, rec)
	return errors.Wrap(err, "inserting reminder history")
}

func (repo *historyRepository) QueryReminders(ctx context.Context) ([]notify.ReminderHistoryRecord, error) {
	records := make([]notify.ReminderHistoryRecord, 0)
	err := repo.db.SelectContext(ctx, &records,
		`SELECT type, recipient, content, date FROM reminder_emails ORDER BY date DESC`)
	return records, errors.Wrap(err, "selecting reminder history")
}

type subscriberRepository struct {
	db *sqlx.DB
}

var _ notify.SubscriberRepository = (*subscriberRepository)(nil)

func NewSubscriberRepository(db *sqlx.DB) *subscriberRepository {
	return &subscriberRepository{db: db}
}

func (repo *subscriberRepository) QueryAllSubscribers(ctx context.Context) ([]notify.Subscriber, error) {
	subs := make([]notify.Subscriber, 0)
	err := repo.db.SelectContext(ctx, &subs, `SELECT email, name FROM newsletter ORDER BY email`)
	return subs, errors.Wrap(err, "selecting subscribers")
}

func (repo *subscriberRepository) DeleteSubscriberByEmail(ctx context.Context, email string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM newsletter WHERE LOWER(email) = LOWER($1)`, email)
	return errors.Wrapf(err, "deleting subscriber %s", email)
}
