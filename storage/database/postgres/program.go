package pgrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/program"
)

type programRepository struct {
	db *sqlx.DB
}

var _ program.Repository = (*programRepository)(nil)

func NewProgramRepository(db *sqlx.DB) *programRepository {
	return &programRepository{db: db}
}

func (repo *programRepository) QueryAllSessions(ctx context.Context) ([]program.Session, error) {
	sessions := make([]program.Session, 0)
	err := repo.db.SelectContext(ctx, &sessions,
		`SELECT sessionid, teamid, startdate, enddate, starttime, endtime, daysofweek, repeat, coachid, cancel
		 FROM session ORDER BY startdate`)
	return sessions, errors.Wrap(err, "selecting sessions")
}

func (repo *programRepository) GetSessionByID(ctx context.Context, id string) (program.Session, error) {
	var s program.Session
	err := repo.db.GetContext(ctx, &s,
		`SELECT sessionid, teamid, startdate, enddate, starttime, endtime, daysofweek, repeat, coachid, cancel
		 FROM session WHERE sessionid = $1`, id)
	if err == sql.ErrNoRows {
		return s, program.ErrNotFound
	}
	return s, errors.Wrapf(err, "selecting session %s", id)
}

func (repo *programRepository) GetTeamByID(ctx context.Context, id string) (program.Team, error) {
	var t program.Team
	err := repo.db.GetContext(ctx, &t, `SELECT teamid, name, schoolid FROM team WHERE teamid = $1`, id)
	if err == sql.ErrNoRows {
		return t, program.ErrNotFound
	}
	return t, errors.Wrapf(err, "selecting team %s", id)
}

func (repo *programRepository) GetStaffByID(ctx context.Context, id string) (program.Staff, error) {
	var s program.Staff
	err := repo.db.GetContext(ctx, &s, `SELECT id, name, email FROM staff WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return s, program.ErrNotFound
	}
	return s, errors.Wrapf(err, "selecting staff %s", id)
}

func (repo *programRepository) GetParentByID(ctx context.Context, id string) (program.Parent, error) {
	var p program.Parent
	err := repo.db.GetContext(ctx, &p,
		`SELECT parentid, firstname, lastname, email, phone FROM parent WHERE parentid = $1`, id)
	if err == sql.ErrNoRows {
		return p, program.ErrNotFound
	}
	return p, errors.Wrapf(err, "selecting parent %s", id)
}

func (repo *programRepository) QueryActiveStudents(ctx context.Context, teamID string) ([]program.Student, error) {
	students := make([]program.Student, 0)
	err := repo.db.SelectContext(ctx, &students,
		`SELECT s.studentid, s.firstname, s.lastname, s.parentid
		 FROM student s
		 JOIN enrollment e ON e.studentid = s.studentid
		 WHERE e.teamid = $1 AND e.isactive`, teamID)
	return students, errors.Wrapf(err, "selecting roster of team %s", teamID)
}

func (repo *programRepository) HasAttendance(ctx context.Context, sessionID, date string) (bool, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM assistance WHERE sessionid = $1 AND date = $2`, sessionID, date)
	return count > 0, errors.Wrapf(err, "counting attendance for session %s", sessionID)
}

func (repo *programRepository) GetStudentAttendance(ctx context.Context, sessionID, studentID, date string) (program.AttendanceRecord, error) {
	var rec program.AttendanceRecord
	err := repo.db.GetContext(ctx, &rec,
		`SELECT sessionid, studentid, date, assisted
		 FROM assistance WHERE sessionid = $1 AND studentid = $2 AND date = $3`,
		sessionID, studentID, date)
	if err == sql.ErrNoRows {
		return rec, program.ErrNotFound
	}
	return rec, errors.Wrapf(err, "selecting attendance of student %s", studentID)
}
