package program

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
)

var NowFunc = time.Now // mockable

type (
	// CoachReminder is one "session occurring today with no attendance taken"
	// candidate, enriched with its coach and team.
	CoachReminder struct {
		Session Session `json:"session"`
		Coach   Staff   `json:"coach"`
		Team    Team    `json:"team"`
	}

	// AbsenceNotice is one "student explicitly marked absent today" candidate,
	// enriched with parent, session and team.
	AbsenceNotice struct {
		Student Student `json:"student"`
		Parent  Parent  `json:"parent"`
		Session Session `json:"session"`
		Team    Team    `json:"team"`
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Repo exposes the backing repository for read-only lookups at the API layer.
func (svc *Service) Repo() Repository {
	return svc.repo
}

// Today returns the current date in the organizational timezone, "2006-01-02".
func Today() string {
	return NowFunc().In(Eastern).Format("2006-01-02")
}

// SessionsWithoutAttendance returns today's sessions for which no attendance
// row exists yet and whose coach has a resolvable email. Coach/team lookups
// that fail drop that single session with a warning; session and attendance
// fetch errors are fatal and propagate.
func (svc *Service) SessionsWithoutAttendance(ctx context.Context) ([]CoachReminder, error) {
	sessions, err := svc.repo.QueryAllSessions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	today := Today()

	var pending []CoachReminder
	for _, s := range sessions {
		if !OccursOn(s, today) {
			continue
		}
		taken, err := svc.repo.HasAttendance(ctx, s.ID, today)
		if err != nil {
			return nil, errors.Wrapf(err, "checking attendance for session %s", s.ID)
		}
		if taken {
			continue
		}
		if !s.CoachID.Valid || s.CoachID.String == "" {
			svc.logger.Warn(fmt.Sprintf("session %s has no coach assigned, skipping reminder", s.ID))
			continue
		}
		coach, err := svc.repo.GetStaffByID(ctx, s.CoachID.String)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("resolving coach %s for session %s: %v", s.CoachID.String, s.ID, err))
			continue
		}
		if coach.Email == "" {
			svc.logger.Warn(fmt.Sprintf("coach %s has no email, skipping session %s", coach.ID, s.ID))
			continue
		}
		team, err := svc.repo.GetTeamByID(ctx, s.TeamID)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("resolving team %s for session %s: %v", s.TeamID, s.ID, err))
			continue
		}
		pending = append(pending, CoachReminder{Session: s, Coach: coach, Team: team})
	}
	return pending, nil
}

// StudentsMarkedAbsent returns the actively enrolled students of today's
// sessions whose attendance row exists and reads assisted=false. A student
// with no row at all was simply not marked yet and must never be reported
// absent.
func (svc *Service) StudentsMarkedAbsent(ctx context.Context) ([]AbsenceNotice, error) {
	sessions, err := svc.repo.QueryAllSessions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	today := Today()

	var notices []AbsenceNotice
	for _, s := range sessions {
		if !OccursOn(s, today) {
			continue
		}
		team, err := svc.repo.GetTeamByID(ctx, s.TeamID)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("resolving team %s for session %s: %v", s.TeamID, s.ID, err))
			continue
		}
		students, err := svc.repo.QueryActiveStudents(ctx, s.TeamID)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("querying roster of team %s: %v", s.TeamID, err))
			continue
		}
		for _, stu := range students {
			rec, err := svc.repo.GetStudentAttendance(ctx, s.ID, stu.ID, today)
			if err != nil {
				if errors.Cause(err) == ErrNotFound {
					continue // not yet marked != absent
				}
				svc.logger.Warn(fmt.Sprintf("checking attendance of student %s in session %s: %v", stu.ID, s.ID, err))
				continue
			}
			if rec.Assisted {
				continue
			}
			parent, err := svc.repo.GetParentByID(ctx, stu.ParentID)
			if err != nil {
				svc.logger.Warn(fmt.Sprintf("resolving parent %s of student %s: %v", stu.ParentID, stu.ID, err))
				continue
			}
			if parent.Email == "" {
				svc.logger.Warn(fmt.Sprintf("parent %s has no email, skipping student %s", parent.ID, stu.ID))
				continue
			}
			notices = append(notices, AbsenceNotice{Student: stu, Parent: parent, Session: s, Team: team})
		}
	}
	return notices, nil
}
