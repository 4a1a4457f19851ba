package admin

import (
	"fmt"

	"kayit.link/pkg/apperrors"
	"kayit.link/repositories"
	"kayit.link/services"

	"github.com/gofiber/fiber/v2"
)

// AdminResponseHandler yönetim tarafındaki başvuru listesi ve CSV dışa
// aktarma uçlarını sunar.
type AdminResponseHandler struct {
	responseService services.IResponseService
}

// NewAdminResponseHandler yeni bir AdminResponseHandler örneği oluşturur.
func NewAdminResponseHandler() *AdminResponseHandler {
	return &AdminResponseHandler{responseService: services.NewResponseService()}
}

// NewAdminResponseHandlerWithService testlerde servisi dışarıdan verir.
func NewAdminResponseHandlerWithService(responseService services.IResponseService) *AdminResponseHandler {
	return &AdminResponseHandler{responseService: responseService}
}

func filtersFromQuery(c *fiber.Ctx) repositories.ResponseFilters {
	return repositories.ResponseFilters{
		SlotID:     uint(c.QueryInt("slot_id")),
		Department: c.Query("department"),
		Year:       c.QueryInt("year"),
	}
}

// ListResponses (GET /admin/forms/:formId/responses) başvuruları
// slot_id/department/year filtreleriyle listeler.
func (h *AdminResponseHandler) ListResponses(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	items, err := h.responseService.ListFormResponses(c.UserContext(), formID, filtersFromQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"responses": items})
}

// ExportResponsesCSV (GET /admin/forms/:formId/responses/export)
// başvuruları CSV dosyası olarak indirir.
func (h *AdminResponseHandler) ExportResponsesCSV(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="form_%d_basvurular.csv"`, formID))

	if err := h.responseService.ExportFormResponsesCSV(c.UserContext(), formID, c.Response().BodyWriter()); err != nil {
		// Başlıklar yazılmış olabilir; hata yine de JSON gövdeyle raporlanır.
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error(), "kind": apperrors.KindOf(err)})
	}
	return nil
}
