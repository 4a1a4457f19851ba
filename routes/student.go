package routes

import (
	studentHandlers "kayit.link/handlers/student"

	"github.com/gofiber/fiber/v2"
)

// registerStudentRoutes öğrenci tarafındaki uçları bağlar.
func registerStudentRoutes(app *fiber.App) {
	handler := studentHandlers.NewStudentFormHandler()

	group := app.Group("/student")
	group.Get("/forms", handler.ListForms)
	group.Get("/forms/:formId", handler.GetForm)
	group.Get("/forms/:formId/slots", handler.GetSlots)
	group.Post("/forms/:formId/submit", handler.Submit)
	group.Post("/forms/:formId/withdraw", handler.Withdraw)
}
