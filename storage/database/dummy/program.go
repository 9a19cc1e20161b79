package dummydb

import (
	"context"
	"sort"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/program"
)

type programRepository struct {
	db *programTables
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *DB) *programRepository {
	return &programRepository{db: db.program}
}

// seeding helpers, test use

func (repo *programRepository) AddSession(s program.Session) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.sessions[s.ID] = &s
}

func (repo *programRepository) AddTeam(t program.Team) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.teams[t.ID] = &t
}

func (repo *programRepository) AddStaff(s program.Staff) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.staff[s.ID] = &s
}

func (repo *programRepository) AddStudent(s program.Student) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.students[s.ID] = &s
}

func (repo *programRepository) AddParent(p program.Parent) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.parents[p.ID] = &p
}

func (repo *programRepository) AddEnrollment(e program.Enrollment) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.enrollments = append(repo.db.enrollments, e)
}

func (repo *programRepository) AddAttendance(rec program.AttendanceRecord) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.attendance = append(repo.db.attendance, rec)
}

// program.Repository

func (repo *programRepository) QueryAllSessions(_ context.Context) ([]program.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]program.Session, 0, len(repo.db.sessions))
	for _, s := range repo.db.sessions {
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

func (repo *programRepository) GetSessionByID(_ context.Context, id string) (program.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return *s, nil
	}
	return program.Session{}, program.ErrNotFound
}

func (repo *programRepository) GetTeamByID(_ context.Context, id string) (program.Team, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.teams[id]; ok {
		return *t, nil
	}
	return program.Team{}, program.ErrNotFound
}

func (repo *programRepository) GetStaffByID(_ context.Context, id string) (program.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.staff[id]; ok {
		return *s, nil
	}
	return program.Staff{}, program.ErrNotFound
}

func (repo *programRepository) GetParentByID(_ context.Context, id string) (program.Parent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.parents[id]; ok {
		return *p, nil
	}
	return program.Parent{}, program.ErrNotFound
}

func (repo *programRepository) QueryActiveStudents(_ context.Context, teamID string) ([]program.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]program.Student, 0)
	for _, e := range repo.db.enrollments {
		if e.TeamID != teamID || !e.IsActive {
			continue
		}
		if s, ok := repo.db.students[e.StudentID]; ok {
			students = append(students, *s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *programRepository) HasAttendance(_ context.Context, sessionID, date string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.db.attendance {
		if rec.SessionID == sessionID && rec.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (repo *programRepository) GetStudentAttendance(_ context.Context, sessionID, studentID, date string) (program.AttendanceRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.db.attendance {
		if rec.SessionID == sessionID && rec.StudentID.String == studentID && rec.Date == date {
			return rec, nil
		}
	}
	return program.AttendanceRecord{}, program.ErrNotFound
}
