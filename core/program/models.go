package program

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound = errors.New("record not found")
)

type (
	// Session is one recurring practice schedule of a team. StartDate/EndDate
	// bound the recurrence (inclusive); StartTime/EndTime are local wall-clock
	// values ("18:00"); DaysOfWeek is a comma-separated list of weekday names;
	// Cancel lists dates explicitly excluded from the sequence.
	Session struct {
		ID         string      `db:"sessionid" json:"sessionId"`
		TeamID     string      `db:"teamid" json:"teamId"`
		StartDate  time.Time   `db:"startdate" json:"startDate"`
		EndDate    time.Time   `db:"enddate" json:"endDate"`
		StartTime  string      `db:"starttime" json:"startTime"`
		EndTime    string      `db:"endtime" json:"endTime"`
		DaysOfWeek string      `db:"daysofweek" json:"daysOfWeek"`
		Repeat     string      `db:"repeat" json:"repeat"`
		CoachID    null.String `db:"coachid" json:"coachId,omitempty"`
		Cancel     string      `db:"cancel" json:"cancel,omitempty"`
	}

	Team struct {
		ID       string `db:"teamid" json:"teamId"`
		Name     string `db:"name" json:"name"`
		SchoolID string `db:"schoolid" json:"schoolId"`
	}

	// Staff is a coach or other employee reachable by email.
	Staff struct {
		ID    string `db:"id" json:"id"`
		Name  string `db:"name" json:"name"`
		Email string `db:"email" json:"email"`
	}

	Student struct {
		ID        string `db:"studentid" json:"studentId"`
		FirstName string `db:"firstname" json:"firstName"`
		LastName  string `db:"lastname" json:"lastName"`
		ParentID  string `db:"parentid" json:"parentId"`
	}

	Parent struct {
		ID        string      `db:"parentid" json:"parentId"`
		FirstName string      `db:"firstname" json:"firstName"`
		LastName  string      `db:"lastname" json:"lastName"`
		Email     string      `db:"email" json:"email"`
		Phone     null.String `db:"phone" json:"phone,omitempty"`
	}

	Enrollment struct {
		ID        string `db:"enrollmentid" json:"enrollmentId"`
		StudentID string `db:"studentid" json:"studentId"`
		TeamID    string `db:"teamid" json:"teamId"`
		IsActive  bool   `db:"isactive" json:"isActive"`
	}

	// AttendanceRecord is one row of the assistance table. StudentID is empty
	// for session-level marking. Date is "YYYY-MM-DD".
	AttendanceRecord struct {
		SessionID string      `db:"sessionid" json:"sessionId"`
		StudentID null.String `db:"studentid" json:"studentId,omitempty"`
		Date      string      `db:"date" json:"date"`
		Assisted  bool        `db:"assisted" json:"assisted"`
	}

	Repository interface {
		QueryAllSessions(ctx context.Context) ([]Session, error)
		GetSessionByID(ctx context.Context, id string) (Session, error)
		GetTeamByID(ctx context.Context, id string) (Team, error)
		GetStaffByID(ctx context.Context, id string) (Staff, error)
		GetParentByID(ctx context.Context, id string) (Parent, error)
		// QueryActiveStudents returns the students actively enrolled in a team.
		QueryActiveStudents(ctx context.Context, teamID string) ([]Student, error)
		// HasAttendance reports whether any attendance row exists for
		// (session, date), student-level or session-level.
		HasAttendance(ctx context.Context, sessionID, date string) (bool, error)
		// GetStudentAttendance returns the per-student mark for
		// (session, student, date); ErrNotFound when the student has not been
		// marked at all.
		GetStudentAttendance(ctx context.Context, sessionID, studentID, date string) (AttendanceRecord, error)
	}
)

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

func (p Parent) FullName() string {
	return p.FirstName + " " + p.LastName
}
