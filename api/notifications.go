package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/notify"
)

type (
	notificationApi struct {
		service *notify.Service
	}

	EmailCampaignRequest struct {
		Subject    string             `json:"subject" validate:"required"`
		HTML       string             `json:"html" validate:"required"`
		Text       string             `json:"text"`
		Provider   string             `json:"provider"`
		Recipients []notify.Recipient `json:"recipients" validate:"dive"`
	}

	SMSCampaignRequest struct {
		Body       string             `json:"body" validate:"required"`
		Recipients []notify.Recipient `json:"recipients" validate:"required,min=1,dive"`
	}
)

func registerNotificationAPI(g *echo.Group, svc *notify.Service) {
	api := notificationApi{service: svc}

	rg := g.Group("/reminders")
	rg.POST("/coach", api.sendCoachReminders)
	rg.POST("/parent-absence", api.sendParentAbsenceNotifications)
	rg.GET("/history", api.reminderHistory)

	cg := g.Group("/campaigns")
	cg.POST("/email", api.sendEmailCampaign)
	cg.POST("/sms", api.sendSMSCampaign)

	ng := g.Group("/newsletter")
	ng.GET("/unsubscribe", api.unsubscribePage)
	ng.POST("/unsubscribe", api.unsubscribeOneClick)
}

// Handlers

func (api *notificationApi) sendCoachReminders(ctx echo.Context) error {
	res, err := api.service.SendCoachReminders(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(resultStatus(res), res)
}

func (api *notificationApi) sendParentAbsenceNotifications(ctx echo.Context) error {
	res, err := api.service.SendParentAbsenceNotifications(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(resultStatus(res), res)
}

func (api *notificationApi) reminderHistory(ctx echo.Context) error {
	records, err := api.service.History(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *notificationApi) sendEmailCampaign(ctx echo.Context) error {
	data := new(EmailCampaignRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := core.Validate.Struct(data); err != nil {
		return err
	}
	provider, err := notify.ParseProvider(data.Provider)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "provider", Error: err.Error()})
	}

	res, err := api.service.SendEmailCampaign(
		ctx.Request().Context(),
		notify.Template{Subject: data.Subject, HTML: data.HTML, Text: data.Text},
		data.Recipients,
		provider,
	)
	if err != nil {
		return err
	}
	return ctx.JSON(batchStatus(res), res)
}

func (api *notificationApi) sendSMSCampaign(ctx echo.Context) error {
	data := new(SMSCampaignRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := core.Validate.Struct(data); err != nil {
		return err
	}
	res := api.service.SendSMSCampaign(ctx.Request().Context(), data.Recipients, data.Body)
	return ctx.JSON(batchStatus(res), res)
}

// unsubscribePage serves browser-initiated unsubscribes. Whatever goes wrong
// internally, the visitor gets a friendly HTML page, never a crash.
func (api *notificationApi) unsubscribePage(ctx echo.Context) error {
	token := ctx.QueryParam("token")
	if token == "" {
		return ctx.HTML(http.StatusBadRequest, unsubHTML("Missing link",
			"This unsubscribe link is incomplete. Please use the link from your email."))
	}
	if err := api.service.Unsubscribe(ctx.Request().Context(), token); err != nil {
		if errors.Cause(err) == notify.ErrInvalidToken {
			return ctx.HTML(http.StatusBadRequest, unsubHTML("Link expired",
				"This unsubscribe link is invalid or has expired. Please use the link from a recent email."))
		}
		return ctx.HTML(http.StatusInternalServerError, unsubHTML("Something went wrong",
			"We could not process your request right now. Please try again later."))
	}
	return ctx.HTML(http.StatusOK, unsubHTML("You are unsubscribed",
		"You will no longer receive emails from us. We are sorry to see you go."))
}

// unsubscribeOneClick implements the mail-client one-click convention: plain
// "OK" body, no HTML.
func (api *notificationApi) unsubscribeOneClick(ctx echo.Context) error {
	token := ctx.QueryParam("token")
	if token == "" {
		token = ctx.FormValue("token")
	}
	if err := api.service.Unsubscribe(ctx.Request().Context(), token); err != nil {
		if errors.Cause(err) == notify.ErrInvalidToken {
			return ctx.String(http.StatusBadRequest, "invalid token")
		}
		return err
	}
	return ctx.String(http.StatusOK, "OK")
}

// resultStatus maps an orchestrator outcome onto a status code, using
// multi-status semantics for partial failure.
func resultStatus(res notify.EmailResult) int {
	switch {
	case res.Success:
		return http.StatusOK
	case res.Sent > 0:
		return http.StatusMultiStatus
	default:
		return http.StatusBadGateway
	}
}

func batchStatus(res notify.BatchResult) int {
	switch {
	case res.Failed == 0:
		return http.StatusOK
	case res.Sent > 0:
		return http.StatusMultiStatus
	default:
		return http.StatusBadGateway
	}
}

func unsubHTML(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family:sans-serif;max-width:480px;margin:80px auto;text-align:center;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, title, title, body)
}
