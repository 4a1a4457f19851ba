package student

import (
	"strconv"

	"kayit.link/configs/configslog"
	"kayit.link/pkg/apperrors"
	"kayit.link/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StudentFormHandler öğrenci tarafındaki form uçlarını sunar.
// Kimlik doğrulama bu çekirdeğin dışındadır: öğrenci kimliği, önündeki
// auth katmanının yazdığı X-Student-ID başlığından okunur.
type StudentFormHandler struct {
	formService       services.IFormService
	submissionService services.ISubmissionService
}

// NewStudentFormHandler yeni bir StudentFormHandler örneği oluşturur.
func NewStudentFormHandler() *StudentFormHandler {
	return &StudentFormHandler{
		formService:       services.NewFormService(),
		submissionService: services.NewSubmissionService(),
	}
}

// NewStudentFormHandlerWithServices testlerde servisleri dışarıdan verir.
func NewStudentFormHandlerWithServices(formService services.IFormService, submissionService services.ISubmissionService) *StudentFormHandler {
	return &StudentFormHandler{formService: formService, submissionService: submissionService}
}

func studentIDFromRequest(c *fiber.Ctx) (uint, error) {
	raw := c.Get("X-Student-ID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.New(apperrors.KindValidation, "öğrenci kimliği eksik veya geçersiz")
	}
	return uint(id), nil
}

func formIDFromParams(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("formId")
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.KindValidation, "geçersiz form kimliği")
	}
	return uint(id), nil
}

func respondError(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		configslog.Log.Error("Beklenmeyen handler hatası", zap.String("path", c.Path()), zap.Error(err))
		message = "beklenmeyen bir hata oluştu"
	}
	return c.Status(status).JSON(fiber.Map{"error": message, "kind": apperrors.KindOf(err)})
}

// ListForms (GET /student/forms) açık formları listeler.
func (h *StudentFormHandler) ListForms(c *fiber.Ctx) error {
	studentID, err := studentIDFromRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	forms, err := h.formService.ListOpenFormsForStudent(c.UserContext(), studentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"forms": forms})
}

// GetForm (GET /student/forms/:formId) form detayını döndürür.
func (h *StudentFormHandler) GetForm(c *fiber.Ctx) error {
	studentID, err := studentIDFromRequest(c)
	if err != nil {
		return respondError(c, err)
	}
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	detail, err := h.formService.GetFormDetailForStudent(c.UserContext(), formID, studentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// GetSlots (GET /student/forms/:formId/slots) slotları kalan kontenjanla listeler.
func (h *StudentFormHandler) GetSlots(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	slots, err := h.formService.GetSlotsForForm(c.UserContext(), formID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots})
}

type submitRequest struct {
	SlotID  uint                   `json:"slot_id"`
	Answers []services.AnswerInput `json:"answers"`
}

// Submit (POST /student/forms/:formId/submit) başvuruyu işler.
func (h *StudentFormHandler) Submit(c *fiber.Ctx) error {
	studentID, err := studentIDFromRequest(c)
	if err != nil {
		return respondError(c, err)
	}
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.New(apperrors.KindValidation, "istek gövdesi çözümlenemedi"))
	}

	if err := h.submissionService.Submit(c.UserContext(), formID, studentID, req.SlotID, req.Answers); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Başvurunuz alındı"})
}

// Withdraw (POST /student/forms/:formId/withdraw) başvuruyu geri çeker.
func (h *StudentFormHandler) Withdraw(c *fiber.Ctx) error {
	studentID, err := studentIDFromRequest(c)
	if err != nil {
		return respondError(c, err)
	}
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.submissionService.Withdraw(c.UserContext(), formID, studentID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Başvurunuz geri çekildi"})
}
