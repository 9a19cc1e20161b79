package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/program"
)

// Logger is a core.Logger that records entries instead of printing them.
type Logger struct {
	mu      sync.Mutex
	Entries []string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, level+": "+msg)
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { panic("fatal: " + msg) }

// NewConfig returns a config suitable for tests: valid secret, tiny batch
// delays so nothing actually waits.
func NewConfig() *core.Config {
	return &core.Config{
		Debug:           true,
		TestMode:        true,
		AppName:         "DisciplineRift",
		SecretKey:       "test-secret-key-0123456789abcdefghij",
		FrontendBaseURL: "http://localhost:3000",
		UnsubTokenTTL:   30 * 24 * time.Hour,
		DefaultFrom:     "DisciplineRift <noreply@disciplinerift.test>",
		Batch: core.BatchConfig{
			Size:       3,
			ChunkSize:  2,
			BatchDelay: time.Millisecond,
		},
	}
}

// NewSession builds a weekly session over the given inclusive date range.
func NewSession(id, teamID, coachID, daysOfWeek, startTime, endTime string, start, end time.Time, cancel string) program.Session {
	s := program.Session{
		ID:         id,
		TeamID:     teamID,
		StartDate:  start,
		EndDate:    end,
		StartTime:  startTime,
		EndTime:    endTime,
		DaysOfWeek: daysOfWeek,
		Repeat:     "weekly",
		Cancel:     cancel,
	}
	if coachID != "" {
		s.CoachID = null.StringFrom(coachID)
	}
	return s
}

// FreezeToday pins program.NowFunc to noon Eastern on the given date and
// returns a restore func.
func FreezeToday(year int, month time.Month, day int) func() {
	orig := program.NowFunc
	program.NowFunc = func() time.Time {
		return time.Date(year, month, day, 12, 0, 0, 0, program.Eastern)
	}
	return func() { program.NowFunc = orig }
}

// Date is shorthand for midnight Eastern on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, program.Eastern)
}

// FailingRepository wraps a program.Repository and injects errors into the
// top-level fetches.
type FailingRepository struct {
	program.Repository
	QueryAllSessionsErr error
	HasAttendanceErr    error
}

func (r *FailingRepository) QueryAllSessions(ctx context.Context) ([]program.Session, error) {
	if r.QueryAllSessionsErr != nil {
		return nil, r.QueryAllSessionsErr
	}
	return r.Repository.QueryAllSessions(ctx)
}

func (r *FailingRepository) HasAttendance(ctx context.Context, sessionID, date string) (bool, error) {
	if r.HasAttendanceErr != nil {
		return false, r.HasAttendanceErr
	}
	return r.Repository.HasAttendance(ctx, sessionID, date)
}
