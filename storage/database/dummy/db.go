package dummydb

import (
	"sync"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/notify"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/program"
)

type (
	DB struct {
		program *programTables
		notify  *notifyTables
	}

	programTables struct {
		sync.RWMutex
		sessions    map[string]*program.Session
		teams       map[string]*program.Team
		staff       map[string]*program.Staff
		students    map[string]*program.Student
		parents     map[string]*program.Parent
		enrollments []program.Enrollment
		attendance  []program.AttendanceRecord
	}

	notifyTables struct {
		sync.RWMutex
		reminders   []notify.ReminderHistoryRecord
		subscribers map[string]*notify.Subscriber
	}
)

func Open() (*DB, error) {
	db := &DB{
		program: &programTables{
			sessions: make(map[string]*program.Session),
			teams:    make(map[string]*program.Team),
			staff:    make(map[string]*program.Staff),
			students: make(map[string]*program.Student),
			parents:  make(map[string]*program.Parent),
		},
		notify: &notifyTables{
			subscribers: make(map[string]*notify.Subscriber),
		},
	}
	return db, nil
}
