package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/workbridge/calling/pkg/internal/services"
)

var srv *services.CallService

func MapAPIs(app *fiber.App, baseURL string, callService *services.CallService) {
	srv = callService

	api := app.Group(baseURL).Name("API")
	{
		workspaces := api.Group("/workspaces/:workspace").Use(authMiddleware, workspaceMiddleware).Name("Workspaces API")
		{
			workspaces.Get("/calls", listCalls)
			workspaces.Get("/calls/stats", getCallStatistics)
			workspaces.Post("/calls", scheduleCall)
			workspaces.Post("/calls/instant", createInstantCall)
		}

		calls := api.Group("/calls").Use(authMiddleware).Name("Calls API")
		{
			calls.Get("/:callId", getCall)
			calls.Put("/:callId", updateCall)
			calls.Delete("/:callId", cancelCall)
			calls.Post("/:callId/start", startCall)
			calls.Post("/:callId/end", endCall)
		}
	}
}
