package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/program"
)

type programApi struct {
	service *program.Service
	repo    program.Repository
}

func registerProgramAPI(g *echo.Group, svc *program.Service) {
	api := programApi{service: svc, repo: svc.Repo()}

	sg := g.Group("/sessions")
	sg.GET("/:id/occurrences", api.sessionOccurrences)

	ag := g.Group("/attendance")
	ag.GET("/pending", api.pendingSessions)
	ag.GET("/absences", api.todaysAbsences)
}

// sessionOccurrences previews the expanded calendar of one session; the same
// expansion feeds reminders, PDFs and calendar exports.
func (api *programApi) sessionOccurrences(ctx echo.Context) error {
	s, err := api.repo.GetSessionByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == program.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	occs := program.Expand(s)
	if occs == nil {
		occs = []program.Occurrence{}
	}
	return ctx.JSON(http.StatusOK, occs)
}

func (api *programApi) pendingSessions(ctx echo.Context) error {
	pending, err := api.service.SessionsWithoutAttendance(ctx.Request().Context())
	if err != nil {
		return err
	}
	if pending == nil {
		pending = []program.CoachReminder{}
	}
	return ctx.JSON(http.StatusOK, pending)
}

func (api *programApi) todaysAbsences(ctx echo.Context) error {
	absences, err := api.service.StudentsMarkedAbsent(ctx.Request().Context())
	if err != nil {
		return err
	}
	if absences == nil {
		absences = []program.AbsenceNotice{}
	}
	return ctx.JSON(http.StatusOK, absences)
}
