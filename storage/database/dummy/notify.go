package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/notify"
)

type historyRepository struct {
	db *notifyTables
}

var _ notify.HistoryRepository = (*historyRepository)(nil)

func NewHistoryRepository(db *DB) *historyRepository {
	return &historyRepository{db: db.notify}
}

func (repo *historyRepository) AppendReminder(_ context.Context, rec notify.ReminderHistoryRecord) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.reminders = append(repo.db.reminders, rec)
	return nil
}

func (repo *historyRepository) QueryReminders(_ context.Context) ([]notify.ReminderHistoryRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]notify.ReminderHistoryRecord, len(repo.db.reminders))
	copy(records, repo.db.reminders)
	return records, nil
}

type subscriberRepository struct {
	db *notifyTables
}

var _ notify.SubscriberRepository = (*subscriberRepository)(nil)

func NewSubscriberRepository(db *DB) *subscriberRepository {
	return &subscriberRepository{db: db.notify}
}

func (repo *subscriberRepository) AddSubscriber(sub notify.Subscriber) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.subscribers[strings.ToLower(sub.Email)] = &sub
}

func (repo *subscriberRepository) QueryAllSubscribers(_ context.Context) ([]notify.Subscriber, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]notify.Subscriber, 0, len(repo.db.subscribers))
	for _, sub := range repo.db.subscribers {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Email < subs[j].Email })
	return subs, nil
}

func (repo *subscriberRepository) DeleteSubscriberByEmail(_ context.Context, email string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.subscribers, strings.ToLower(email))
	return nil
}
