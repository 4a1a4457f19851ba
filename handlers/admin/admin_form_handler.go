package admin

import (
	"strings"
	"time"

	"kayit.link/configs/configslog"
	"kayit.link/pkg/apperrors"
	"kayit.link/pkg/queryparams"
	"kayit.link/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminFormHandler yönetim tarafındaki form-yazarlık ve yaşam döngüsü
// uçlarını sunar. Yetkilendirme önündeki auth katmanının işidir.
type AdminFormHandler struct {
	formService      services.IFormService
	lifecycleService services.IFormLifecycleService
}

// NewAdminFormHandler yeni bir AdminFormHandler örneği oluşturur.
func NewAdminFormHandler() *AdminFormHandler {
	return &AdminFormHandler{
		formService:      services.NewFormService(),
		lifecycleService: services.NewFormLifecycleService(),
	}
}

// NewAdminFormHandlerWithServices testlerde servisleri dışarıdan verir.
func NewAdminFormHandlerWithServices(formService services.IFormService, lifecycleService services.IFormLifecycleService) *AdminFormHandler {
	return &AdminFormHandler{formService: formService, lifecycleService: lifecycleService}
}

func formIDFromParams(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("formId")
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.KindValidation, "geçersiz form kimliği")
	}
	return uint(id), nil
}

func childIDFromParams(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.KindValidation, "geçersiz kayıt kimliği")
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

// CreateForm (POST /admin/forms) yeni taslak form oluşturur.
func (h *AdminFormHandler) CreateForm(c *fiber.Ctx) error {
	var input services.CreateFormInput
	if err := c.BodyParser(&input); err != nil {
		return respondError(c, apperrors.New(apperrors.KindValidation, "istek gövdesi çözümlenemedi"))
	}

	form, err := h.formService.CreateForm(c.UserContext(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"form": form})
}

type publishRequest struct {
	Mode      string `json:"mode"`
	PublishAt string `json:"publish_at"`
	CloseAt   string `json:"close_at"`
}

// PublishForm (POST /admin/forms/:formId/publish) formu hemen yayınlar
// veya mode=SCHEDULE ile zamanlar. Zamanlar RFC3339 biçimindedir.
func (h *AdminFormHandler) PublishForm(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	var req publishRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return respondError(c, apperrors.New(apperrors.KindValidation, "istek gövdesi çözümlenemedi"))
	}

	if strings.ToUpper(req.Mode) != "SCHEDULE" {
		form, err := h.lifecycleService.PublishNow(c.UserContext(), formID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"form": form})
	}

	if req.PublishAt == "" {
		return respondError(c, apperrors.New(apperrors.KindValidation, "zamanlama için yayınlama zamanı zorunludur"))
	}
	publishAt, err := time.Parse(time.RFC3339, req.PublishAt)
	if err != nil {
		return respondError(c, apperrors.New(apperrors.KindValidation, "geçersiz yayınlama zamanı"))
	}
	var closeAt *time.Time
	if req.CloseAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.CloseAt)
		if err != nil {
			return respondError(c, apperrors.New(apperrors.KindValidation, "geçersiz kapanma zamanı"))
		}
		closeAt = &parsed
	}

	form, err := h.lifecycleService.SchedulePublish(c.UserContext(), formID, publishAt, closeAt)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"form": form})
}

// CloseForm (POST /admin/forms/:formId/close) açık formu kapatır.
func (h *AdminFormHandler) CloseForm(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	form, err := h.lifecycleService.Close(c.UserContext(), formID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"form": form})
}

// DeleteForm (DELETE /admin/forms/:formId) taslak formu çocuklarıyla siler.
func (h *AdminFormHandler) DeleteForm(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.lifecycleService.Delete(c.UserContext(), formID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Form silindi"})
}

// ListForms (GET /admin/forms) formları sayfalayarak listeler.
func (h *AdminFormHandler) ListForms(c *fiber.Ctx) error {
	var params queryparams.ListParams
	if err := c.QueryParser(&params); err != nil {
		return respondError(c, apperrors.New(apperrors.KindValidation, "geçersiz liste parametreleri"))
	}

	result, err := h.formService.ListFormsPaginated(c.UserContext(), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// AddQuestion (POST /admin/forms/:formId/questions) taslak forma soru ekler.
func (h *AdminFormHandler) AddQuestion(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	var input services.QuestionInput
	if err := c.BodyParser(&input); err != nil {
		return respondError(c, apperrors.New(apperrors.KindValidation, "istek gövdesi çözümlenemedi"))
	}

	question, err := h.formService.AddQuestion(c.UserContext(), formID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"question": question})
}

// DeleteQuestion (DELETE /admin/forms/:formId/questions/:questionId)
func (h *AdminFormHandler) DeleteQuestion(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}
	questionID, err := childIDFromParams(c, "questionId")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.formService.DeleteQuestion(c.UserContext(), formID, questionID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Soru silindi"})
}

// AddSlot (POST /admin/forms/:formId/slots) taslak forma slot ekler.
func (h *AdminFormHandler) AddSlot(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	var input services.SlotInput
	if err := c.BodyParser(&input); err != nil {
		return respondError(c, apperrors.New(apperrors.KindValidation, "istek gövdesi çözümlenemedi"))
	}

	slot, err := h.formService.AddSlot(c.UserContext(), formID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slot": slot})
}

// DeleteSlot (DELETE /admin/forms/:formId/slots/:slotId)
func (h *AdminFormHandler) DeleteSlot(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}
	slotID, err := childIDFromParams(c, "slotId")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.formService.DeleteSlot(c.UserContext(), formID, slotID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Slot silindi"})
}

// AddEligibilityRule (POST /admin/forms/:formId/eligibility-rules)
func (h *AdminFormHandler) AddEligibilityRule(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	var input services.RuleInput
	if err := c.BodyParser(&input); err != nil {
		return respondError(c, apperrors.New(apperrors.KindValidation, "istek gövdesi çözümlenemedi"))
	}

	rule, err := h.formService.AddEligibilityRule(c.UserContext(), formID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"rule": rule})
}

// SlotAnalytics (GET /admin/forms/:formId/slots/analytics)
func (h *AdminFormHandler) SlotAnalytics(c *fiber.Ctx) error {
	formID, err := formIDFromParams(c)
	if err != nil {
		return respondError(c, err)
	}

	rows, err := h.formService.GetSlotAnalytics(c.UserContext(), formID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"slots": rows})
}
