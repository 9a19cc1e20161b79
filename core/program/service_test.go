package program_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/program"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/storage/database/dummy"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/tests"
)

// 2025-01-06 is a Monday.
var (
	rangeStart = testutil.Date(2025, time.January, 6)
	rangeEnd   = testutil.Date(2025, time.January, 27)
)

func newRepo(t *testing.T) *dummydb.DB {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	return db
}

func TestServiceSessionsWithoutAttendance(t *testing.T) {
	defer testutil.FreezeToday(2025, time.January, 6)()

	db := newRepo(t)
	repo := dummydb.NewProgramRepository(db)
	logger := testutil.NewLogger()
	svc := program.NewService(repo, logger)
	ctx := context.Background()

	repo.AddTeam(program.Team{ID: "t1", Name: "Hawks", SchoolID: "sch1"})
	repo.AddStaff(program.Staff{ID: "c1", Name: "Coach Rivera", Email: "rivera@club.test"})
	repo.AddStaff(program.Staff{ID: "c2", Name: "Coach Ortiz", Email: "ortiz@club.test"})
	repo.AddStaff(program.Staff{ID: "c3", Name: "Coach Silent"}) // no email

	// occurring today, no attendance yet
	repo.AddSession(testutil.NewSession("s1", "t1", "c1", "Monday", "18:00", "19:00", rangeStart, rangeEnd, ""))
	// occurring today, attendance already taken
	repo.AddSession(testutil.NewSession("s2", "t1", "c2", "Monday", "17:00", "18:00", rangeStart, rangeEnd, ""))
	repo.AddAttendance(program.AttendanceRecord{SessionID: "s2", Date: "2025-01-06", Assisted: true})
	// not occurring today
	repo.AddSession(testutil.NewSession("s3", "t1", "c1", "Tuesday", "18:00", "19:00", rangeStart, rangeEnd, ""))
	// occurring today but cancelled
	repo.AddSession(testutil.NewSession("s4", "t1", "c1", "Monday", "18:00", "19:00", rangeStart, rangeEnd, "20250106"))
	// no coach assigned
	repo.AddSession(testutil.NewSession("s5", "t1", "", "Monday", "18:00", "19:00", rangeStart, rangeEnd, ""))
	// coach id points nowhere
	repo.AddSession(testutil.NewSession("s6", "t1", "ghost", "Monday", "18:00", "19:00", rangeStart, rangeEnd, ""))
	// coach has no email
	repo.AddSession(testutil.NewSession("s7", "t1", "c3", "Monday", "18:00", "19:00", rangeStart, rangeEnd, ""))

	pending, err := svc.SessionsWithoutAttendance(ctx)
	require.NoError(t, err)

	require.Len(t, pending, 1)
	assert.Equal(t, "s1", pending[0].Session.ID)
	assert.Equal(t, "rivera@club.test", pending[0].Coach.Email)
	assert.Equal(t, "Hawks", pending[0].Team.Name)

	// unresolved coach and missing email produce warnings, not failures
	assert.NotEmpty(t, logger.Entries)
}

func TestServiceSessionsWithoutAttendanceStudentRowCounts(t *testing.T) {
	defer testutil.FreezeToday(2025, time.January, 6)()

	db := newRepo(t)
	repo := dummydb.NewProgramRepository(db)
	svc := program.NewService(repo, testutil.NewLogger())

	repo.AddTeam(program.Team{ID: "t1", Name: "Hawks", SchoolID: "sch1"})
	repo.AddStaff(program.Staff{ID: "c1", Name: "Coach Rivera", Email: "rivera@club.test"})
	repo.AddSession(testutil.NewSession("s1", "t1", "c1", "Monday", "18:00", "19:00", rangeStart, rangeEnd, ""))

	// a single student-level mark means attendance started, so no reminder
	repo.AddAttendance(program.AttendanceRecord{
		SessionID: "s1",
		StudentID: null.StringFrom("stu1"),
		Date:      "2025-01-06",
		Assisted:  true,
	})

	pending, err := svc.SessionsWithoutAttendance(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestServiceStudentsMarkedAbsent(t *testing.T) {
	defer testutil.FreezeToday(2025, time.January, 6)()

	db := newRepo(t)
	repo := dummydb.NewProgramRepository(db)
	logger := testutil.NewLogger()
	svc := program.NewService(repo, logger)
	ctx := context.Background()

	repo.AddTeam(program.Team{ID: "t1", Name: "Hawks", SchoolID: "sch1"})
	repo.AddSession(testutil.NewSession("s1", "t1", "c1", "Monday", "18:00", "19:00", rangeStart, rangeEnd, ""))

	repo.AddParent(program.Parent{ID: "p1", FirstName: "Ana", LastName: "Gomez", Email: "ana@family.test"})
	repo.AddParent(program.Parent{ID: "p2", FirstName: "Luis", LastName: "Diaz", Email: "luis@family.test"})
	repo.AddParent(program.Parent{ID: "p3", FirstName: "Mia", LastName: "Perez"}) // no email

	repo.AddStudent(program.Student{ID: "stu1", FirstName: "Sofia", LastName: "Gomez", ParentID: "p1"})
	repo.AddStudent(program.Student{ID: "stu2", FirstName: "Leo", LastName: "Diaz", ParentID: "p2"})
	repo.AddStudent(program.Student{ID: "stu3", FirstName: "Eva", LastName: "Diaz", ParentID: "p2"})
	repo.AddStudent(program.Student{ID: "stu4", FirstName: "Max", LastName: "Perez", ParentID: "p3"})
	repo.AddStudent(program.Student{ID: "stu5", FirstName: "Kim", LastName: "Lee", ParentID: "p1"})

	repo.AddEnrollment(program.Enrollment{ID: "e1", StudentID: "stu1", TeamID: "t1", IsActive: true})
	repo.AddEnrollment(program.Enrollment{ID: "e2", StudentID: "stu2", TeamID: "t1", IsActive: true})
	repo.AddEnrollment(program.Enrollment{ID: "e3", StudentID: "stu3", TeamID: "t1", IsActive: true})
	repo.AddEnrollment(program.Enrollment{ID: "e4", StudentID: "stu4", TeamID: "t1", IsActive: true})
	repo.AddEnrollment(program.Enrollment{ID: "e5", StudentID: "stu5", TeamID: "t1", IsActive: false}) // dropped out

	mark := func(studentID string, assisted bool) {
		repo.AddAttendance(program.AttendanceRecord{
			SessionID: "s1",
			StudentID: null.StringFrom(studentID),
			Date:      "2025-01-06",
			Assisted:  assisted,
		})
	}
	mark("stu1", false) // absent
	mark("stu2", true)  // present
	// stu3 deliberately unmarked
	mark("stu4", false) // absent but parent unreachable
	mark("stu5", false) // absent but enrollment inactive

	notices, err := svc.StudentsMarkedAbsent(ctx)
	require.NoError(t, err)

	require.Len(t, notices, 1)
	assert.Equal(t, "stu1", notices[0].Student.ID)
	assert.Equal(t, "ana@family.test", notices[0].Parent.Email)
	assert.Equal(t, "Sofia Gomez", notices[0].Student.FullName())
	assert.Equal(t, "s1", notices[0].Session.ID)
}

func TestServiceStudentsMarkedAbsentUnmarkedIsNotAbsent(t *testing.T) {
	defer testutil.FreezeToday(2025, time.January, 6)()

	db := newRepo(t)
	repo := dummydb.NewProgramRepository(db)
	svc := program.NewService(repo, testutil.NewLogger())

	repo.AddTeam(program.Team{ID: "t1", Name: "Hawks", SchoolID: "sch1"})
	repo.AddSession(testutil.NewSession("s1", "t1", "c1", "Monday", "18:00", "19:00", rangeStart, rangeEnd, ""))
	repo.AddParent(program.Parent{ID: "p1", FirstName: "Ana", LastName: "Gomez", Email: "ana@family.test"})
	repo.AddStudent(program.Student{ID: "stu1", FirstName: "Sofia", LastName: "Gomez", ParentID: "p1"})
	repo.AddEnrollment(program.Enrollment{ID: "e1", StudentID: "stu1", TeamID: "t1", IsActive: true})

	// no attendance rows at all: nobody is absent
	notices, err := svc.StudentsMarkedAbsent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestServiceTopLevelStorageErrorsPropagate(t *testing.T) {
	defer testutil.FreezeToday(2025, time.January, 6)()
	ctx := context.Background()
	boom := errors.New("db down")

	seed := func(t *testing.T) program.Repository {
		db := newRepo(t)
		repo := dummydb.NewProgramRepository(db)
		repo.AddTeam(program.Team{ID: "t1", Name: "Hawks", SchoolID: "sch1"})
		repo.AddStaff(program.Staff{ID: "c1", Name: "Coach Rivera", Email: "rivera@club.test"})
		repo.AddSession(testutil.NewSession("s1", "t1", "c1", "Monday", "18:00", "19:00", rangeStart, rangeEnd, ""))
		return repo
	}

	t.Run("session fetch failure", func(t *testing.T) {
		failing := &testutil.FailingRepository{Repository: seed(t), QueryAllSessionsErr: boom}
		svc := program.NewService(failing, testutil.NewLogger())

		_, err := svc.SessionsWithoutAttendance(ctx)
		require.Error(t, err)
		assert.Equal(t, boom, errors.Cause(err))

		_, err = svc.StudentsMarkedAbsent(ctx)
		require.Error(t, err)
		assert.Equal(t, boom, errors.Cause(err))
	})

	t.Run("attendance fetch failure", func(t *testing.T) {
		failing := &testutil.FailingRepository{Repository: seed(t), HasAttendanceErr: boom}
		svc := program.NewService(failing, testutil.NewLogger())

		_, err := svc.SessionsWithoutAttendance(ctx)
		require.Error(t, err)
		assert.Equal(t, boom, errors.Cause(err))
	})
}

func TestToday(t *testing.T) {
	defer testutil.FreezeToday(2025, time.January, 6)()
	assert.Equal(t, "2025-01-06", program.Today())
}
