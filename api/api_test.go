package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/notify"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/program"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/services/email"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/storage/database/dummy"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/tests"
)

type rejectingMailer struct {
	inner core.Mailer
	fail  map[string]bool
}

func (m *rejectingMailer) SendMail(ctx context.Context, msg *core.EmailMessage) (string, error) {
	if m.fail[msg.To[0].Address] {
		return "", errors.Wrap(core.ErrAuthFailed, "credentials rejected")
	}
	return m.inner.SendMail(ctx, msg)
}

type testServer struct {
	srv         Server
	programRepo interface {
		AddSession(program.Session)
		AddTeam(program.Team)
		AddStaff(program.Staff)
		AddStudent(program.Student)
		AddParent(program.Parent)
		AddEnrollment(program.Enrollment)
		AddAttendance(program.AttendanceRecord)
	}
	subscribers interface {
		AddSubscriber(notify.Subscriber)
	}
	tokens *notify.TokenService
}

func newTestServer(t *testing.T, failing map[string]bool) *testServer {
	return newTestServerWithRepoErr(t, failing, nil)
}

func newTestServerWithRepoErr(t *testing.T, failing map[string]bool, repoErr error) *testServer {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := testutil.NewConfig()
	logger := testutil.NewLogger()

	var mailer core.Mailer = emailsvc.NewConsoleMailerMock()
	if len(failing) > 0 {
		mailer = &rejectingMailer{inner: mailer, fail: failing}
	}
	registry := emailsvc.NewConsoleRegistry(mailer)

	programRepo := dummydb.NewProgramRepository(db)
	var repo program.Repository = programRepo
	if repoErr != nil {
		repo = &testutil.FailingRepository{Repository: programRepo, QueryAllSessionsErr: repoErr}
	}
	gaps := program.NewService(repo, logger)
	tokens := notify.NewTokenService(conf)
	sender := notify.NewSender(registry, tokens, conf, logger)
	dispatcher := notify.NewDispatcher(sender, nil, conf.Batch, logger)
	subscriberRepo := dummydb.NewSubscriberRepository(db)
	notifySvc := notify.NewService(gaps, sender, dispatcher, tokens,
		dummydb.NewHistoryRepository(db), subscriberRepo, logger)

	return &testServer{
		srv: NewServer(&Options{
			Addr:           ":0",
			DisableReqLogs: true,
			Conf:           conf,
			Logger:         logger,
			ProgramSvc:     gaps,
			NotifySvc:      notifySvc,
		}),
		programRepo: programRepo,
		subscribers: subscriberRepo,
		tokens:      tokens,
	}
}

func (ts *testServer) request(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) seedPendingSession(id, coachID, coachEmail string) {
	start := testutil.Date(2025, time.January, 6)
	end := testutil.Date(2025, time.January, 27)
	ts.programRepo.AddTeam(program.Team{ID: "t1", Name: "Hawks", SchoolID: "sch1"})
	ts.programRepo.AddStaff(program.Staff{ID: coachID, Name: "Coach " + coachID, Email: coachEmail})
	ts.programRepo.AddSession(testutil.NewSession(id, "t1", coachID, "Monday", "18:00", "19:00", start, end, ""))
}

func TestHome(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.request(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the DisciplineRift API!", rec.Body.String())
}

func TestCoachReminderEndpoint(t *testing.T) {
	defer testutil.FreezeToday(2025, time.January, 6)()

	t.Run("nothing pending", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := ts.request(http.MethodPost, "/v1/reminders/coach", "")

		assert.Equal(t, http.StatusOK, rec.Code)

		var res notify.EmailResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.True(t, res.Success)
		assert.Zero(t, res.Sent)
		assert.Equal(t, []string{"No hay sesiones pendientes de asistencia hoy"}, res.Errors)
	})

	t.Run("pending session", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.seedPendingSession("s1", "c1", "rivera@club.test")
		rec := ts.request(http.MethodPost, "/v1/reminders/coach", "")

		assert.Equal(t, http.StatusOK, rec.Code)

		var res notify.EmailResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.True(t, res.Success)
		assert.Equal(t, 1, res.Sent)

		// the send shows up in the audit trail
		rec = ts.request(http.MethodGet, "/v1/reminders/history", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var history []notify.ReminderHistoryRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
		require.Len(t, history, 1)
		assert.Equal(t, "rivera@club.test", history[0].Recipient)
	})

	t.Run("partial failure is multi-status", func(t *testing.T) {
		ts := newTestServer(t, map[string]bool{"ortiz@club.test": true})
		ts.seedPendingSession("s1", "c1", "rivera@club.test")
		ts.programRepo.AddStaff(program.Staff{ID: "c2", Name: "Coach Ortiz", Email: "ortiz@club.test"})
		ts.programRepo.AddSession(testutil.NewSession("s2", "t1", "c2", "Monday", "17:00", "18:00",
			testutil.Date(2025, time.January, 6), testutil.Date(2025, time.January, 27), ""))

		rec := ts.request(http.MethodPost, "/v1/reminders/coach", "")
		assert.Equal(t, http.StatusMultiStatus, rec.Code)

		var res notify.EmailResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.False(t, res.Success)
		assert.Equal(t, 1, res.Sent)
		assert.Equal(t, 1, res.Failed)
	})

	t.Run("storage failure is a server error, not a partial result", func(t *testing.T) {
		ts := newTestServerWithRepoErr(t, nil, errors.New("db down"))
		ts.seedPendingSession("s1", "c1", "rivera@club.test")

		rec := ts.request(http.MethodPost, "/v1/reminders/coach", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("total failure is bad gateway", func(t *testing.T) {
		ts := newTestServer(t, map[string]bool{"rivera@club.test": true})
		ts.seedPendingSession("s1", "c1", "rivera@club.test")

		rec := ts.request(http.MethodPost, "/v1/reminders/coach", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestParentAbsenceEndpoint(t *testing.T) {
	defer testutil.FreezeToday(2025, time.January, 6)()

	ts := newTestServer(t, nil)
	ts.seedPendingSession("s1", "c1", "rivera@club.test")
	ts.programRepo.AddParent(program.Parent{ID: "p1", FirstName: "Ana", LastName: "Gomez", Email: "ana@family.test"})
	ts.programRepo.AddStudent(program.Student{ID: "stu1", FirstName: "Sofia", LastName: "Gomez", ParentID: "p1"})
	ts.programRepo.AddEnrollment(program.Enrollment{ID: "e1", StudentID: "stu1", TeamID: "t1", IsActive: true})
	ts.programRepo.AddAttendance(program.AttendanceRecord{
		SessionID: "s1",
		StudentID: null.StringFrom("stu1"),
		Date:      "2025-01-06",
		Assisted:  false,
	})

	rec := ts.request(http.MethodPost, "/v1/reminders/parent-absence", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var res notify.EmailResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Sent)
}

func TestEmailCampaignEndpoint(t *testing.T) {
	t.Run("explicit recipients", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := ts.request(http.MethodPost, "/v1/campaigns/email", `{
			"subject": "Spring season",
			"html": "<p>Registration is open</p>",
			"recipients": [{"email": "ana@family.test"}, {"email": "luis@family.test"}]
		}`)

		assert.Equal(t, http.StatusOK, rec.Code)

		var res notify.BatchResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, 2, res.Total)
		assert.Equal(t, 2, res.Sent)
	})

	t.Run("missing subject is a validation error", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := ts.request(http.MethodPost, "/v1/campaigns/email", `{"html": "<p>x</p>"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown provider is rejected", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := ts.request(http.MethodPost, "/v1/campaigns/email", `{
			"subject": "s", "html": "<p>x</p>", "provider": "carrier-pigeon",
			"recipients": [{"email": "ana@family.test"}]
		}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no recipients and empty audience", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := ts.request(http.MethodPost, "/v1/campaigns/email", `{"subject": "s", "html": "<p>x</p>"}`)

		// synthetic N/A error, nothing sent
		assert.Equal(t, http.StatusOK, rec.Code)

		var res notify.BatchResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Zero(t, res.Total)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "N/A", res.Errors[0].Recipient)
	})
}

func TestSMSCampaignEndpoint(t *testing.T) {
	t.Run("gateway not configured", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := ts.request(http.MethodPost, "/v1/campaigns/sms", `{
			"body": "Practice tonight at 6pm",
			"recipients": [{"email": "+15550001111"}]
		}`)

		assert.Equal(t, http.StatusBadGateway, rec.Code)

		var res notify.BatchResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, 1, res.Failed)
	})

	t.Run("missing body", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := ts.request(http.MethodPost, "/v1/campaigns/sms", `{"recipients": [{"email": "+15550001111"}]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSessionOccurrencesEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedPendingSession("s1", "c1", "rivera@club.test")

	t.Run("known session", func(t *testing.T) {
		rec := ts.request(http.MethodGet, "/v1/sessions/s1/occurrences", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var occs []program.Occurrence
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &occs))
		require.Len(t, occs, 4)
		assert.Equal(t, "20250106", occs[0].YMD)
	})

	t.Run("unknown session", func(t *testing.T) {
		rec := ts.request(http.MethodGet, "/v1/sessions/ghost/occurrences", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAttendanceEndpoints(t *testing.T) {
	defer testutil.FreezeToday(2025, time.January, 6)()

	ts := newTestServer(t, nil)
	ts.seedPendingSession("s1", "c1", "rivera@club.test")

	rec := ts.request(http.MethodGet, "/v1/attendance/pending", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var pending []program.CoachReminder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "s1", pending[0].Session.ID)

	rec = ts.request(http.MethodGet, "/v1/attendance/absences", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestUnsubscribeEndpoints(t *testing.T) {
	t.Run("browser page with valid token", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.subscribers.AddSubscriber(notify.Subscriber{Email: "ana@family.test", Name: "Ana"})

		token, err := ts.tokens.Sign("ana@family.test")
		require.NoError(t, err)

		rec := ts.request(http.MethodGet, "/v1/newsletter/unsubscribe?token="+token, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "You are unsubscribed")
	})

	t.Run("browser page with missing token", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := ts.request(http.MethodGet, "/v1/newsletter/unsubscribe", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "incomplete")
	})

	t.Run("browser page with invalid token", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := ts.request(http.MethodGet, "/v1/newsletter/unsubscribe?token=garbage", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "expired")
	})

	t.Run("one-click", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.subscribers.AddSubscriber(notify.Subscriber{Email: "ana@family.test", Name: "Ana"})

		token, err := ts.tokens.Sign("ana@family.test")
		require.NoError(t, err)

		rec := ts.request(http.MethodPost, "/v1/newsletter/unsubscribe?token="+token, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("one-click with invalid token", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := ts.request(http.MethodPost, "/v1/newsletter/unsubscribe?token=garbage", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
