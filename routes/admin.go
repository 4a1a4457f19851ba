package routes

import (
	adminHandlers "kayit.link/handlers/admin"

	"github.com/gofiber/fiber/v2"
)

// registerAdminRoutes yönetim tarafındaki uçları bağlar.
func registerAdminRoutes(app *fiber.App) {
	formHandler := adminHandlers.NewAdminFormHandler()
	responseHandler := adminHandlers.NewAdminResponseHandler()

	group := app.Group("/admin")

	group.Post("/forms", formHandler.CreateForm)
	group.Get("/forms", formHandler.ListForms)
	group.Post("/forms/:formId/publish", formHandler.PublishForm)
	group.Post("/forms/:formId/close", formHandler.CloseForm)
	group.Delete("/forms/:formId", formHandler.DeleteForm)

	group.Post("/forms/:formId/questions", formHandler.AddQuestion)
	group.Delete("/forms/:formId/questions/:questionId", formHandler.DeleteQuestion)
	group.Post("/forms/:formId/slots", formHandler.AddSlot)
	group.Delete("/forms/:formId/slots/:slotId", formHandler.DeleteSlot)
	group.Get("/forms/:formId/slots/analytics", formHandler.SlotAnalytics)
	group.Post("/forms/:formId/eligibility-rules", formHandler.AddEligibilityRule)

	group.Get("/forms/:formId/responses", responseHandler.ListResponses)
	group.Get("/forms/:formId/responses/export", responseHandler.ExportResponsesCSV)
}
