package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"

	"github.com/workbridge/calling/pkg/internal/models"
	"github.com/workbridge/calling/pkg/internal/services"
	"github.com/workbridge/calling/pkg/internal/web/exts"
)

// remapCallError translates service failures into transport responses.
// Access denials were already merged into not-found by the service.
func remapCallError(err error) error {
	switch {
	case services.IsNotFound(err):
		return fiber.NewError(fiber.StatusNotFound, "call not found")
	case errors.Is(err, services.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrProvider):
		return fiber.NewError(fiber.StatusBadGateway, "room provider is unavailable")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}

func callWithToken(c *fiber.Ctx, call models.Call, user models.Account) error {
	tk, err := srv.IssueCallToken(call, user)
	if err != nil {
		return remapCallError(err)
	}

	return c.JSON(fiber.Map{
		"call":         call,
		"access_token": tk,
		"endpoint":     viper.GetString("calling.endpoint"),
	})
}

func scheduleCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	workspace := c.Locals("workspace").(models.Workspace)

	var data struct {
		Title           string    `json:"title"`
		Description     string    `json:"description"`
		ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
		DurationMinutes int       `json:"duration_minutes" validate:"gte=0,lte=1440"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	call, err := srv.ScheduleCall(workspace, user, services.ScheduleCallRequest{
		Title:           data.Title,
		Description:     data.Description,
		ScheduledAt:     data.ScheduledAt,
		DurationMinutes: data.DurationMinutes,
	})
	if err != nil {
		return remapCallError(err)
	}

	return callWithToken(c, call, user)
}

func createInstantCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	workspace := c.Locals("workspace").(models.Workspace)

	call, err := srv.NewInstantCall(workspace, user)
	if err != nil {
		return remapCallError(err)
	}

	return callWithToken(c, call, user)
}

func getCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	callId, err := c.ParamsInt("callId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid call id")
	}

	call, err := srv.GetCallForUser(uint(callId), user)
	if err != nil {
		return remapCallError(err)
	}

	// Live participant listing is best-effort only.
	if participants, err := srv.ListLiveParticipants(call); err == nil {
		call.LiveParticipants = participants
	}

	return callWithToken(c, call, user)
}

func listCalls(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(models.Workspace)

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", 10)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	status := c.Query("status")

	calls, count, err := srv.ListCalls(workspace, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return remapCallError(err)
	}

	return c.JSON(fiber.Map{
		"count":     count,
		"page":      page,
		"page_size": pageSize,
		"data":      calls,
	})
}

func getCallStatistics(c *fiber.Ctx) error {
	workspace := c.Locals("workspace").(models.Workspace)

	stats, err := srv.GetCallStatistics(workspace)
	if err != nil {
		return remapCallError(err)
	}

	return c.JSON(stats)
}

func updateCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	callId, err := c.ParamsInt("callId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid call id")
	}

	var data struct {
		Title           string    `json:"title"`
		Description     string    `json:"description"`
		ScheduledAt     time.Time `json:"scheduled_at"`
		DurationMinutes int       `json:"duration_minutes" validate:"gte=0,lte=1440"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	call, err := srv.GetCallForUser(uint(callId), user)
	if err != nil {
		return remapCallError(err)
	}

	call, err = srv.UpdateCall(call, user, services.UpdateCallRequest{
		Title:           data.Title,
		Description:     data.Description,
		ScheduledAt:     data.ScheduledAt,
		DurationMinutes: data.DurationMinutes,
	})
	if err != nil {
		return remapCallError(err)
	}

	return c.JSON(call)
}

func cancelCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	callId, err := c.ParamsInt("callId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid call id")
	}

	var data struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&data)

	call, err := srv.GetCallForUser(uint(callId), user)
	if err != nil {
		return remapCallError(err)
	}

	call, err = srv.CancelCall(call, user, data.Reason)
	if err != nil {
		return remapCallError(err)
	}

	return c.JSON(call)
}

func startCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	callId, err := c.ParamsInt("callId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid call id")
	}

	call, err := srv.GetCallForUser(uint(callId), user)
	if err != nil {
		return remapCallError(err)
	}

	call, err = srv.StartCall(call, user)
	if err != nil {
		return remapCallError(err)
	}

	return c.JSON(call)
}

func endCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	callId, err := c.ParamsInt("callId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid call id")
	}

	var data struct {
		Notes string `json:"notes"`
	}
	_ = c.BodyParser(&data)

	call, err := srv.GetCallForUser(uint(callId), user)
	if err != nil {
		return remapCallError(err)
	}

	call, err = srv.EndCall(call, user, data.Notes)
	if err != nil {
		return remapCallError(err)
	}

	return c.JSON(call)
}
