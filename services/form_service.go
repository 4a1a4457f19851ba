package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"kayit.link/configs"
	"kayit.link/configs/configslog"
	"kayit.link/configs/configsredis"
	"kayit.link/models"
	"kayit.link/pkg/apperrors"
	"kayit.link/pkg/formcache"
	"kayit.link/pkg/queryparams"
	"kayit.link/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateFormInput yeni taslak formun alanlarıdır.
type CreateFormInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	TestDate     *time.Time `json:"test_date"`
	MaxResponses *int       `json:"max_responses"`
}

// QuestionInput forma eklenecek sorunun alanlarıdır.
type QuestionInput struct {
	QuestionText string `json:"question_text"`
	InputType    string `json:"input_type"`
	IsRequired   *bool  `json:"is_required"`
}

// SlotInput forma eklenecek slotun alanlarıdır.
type SlotInput struct {
	SlotDate    time.Time `json:"slot_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	MaxCapacity int       `json:"max_capacity"`
}

// RuleInput forma eklenecek uygunluk kuralının alanlarıdır.
type RuleInput struct {
	Source       models.RuleSource   `json:"source"`
	StudentField string              `json:"student_field"`
	QuestionID   *uint               `json:"question_id"`
	Operator     models.RuleOperator `json:"operator"`
	Value        string              `json:"value"`
}

// OpenFormView öğrenci listesindeki tek formdur.
type OpenFormView struct {
	models.Form
	AlreadySubmitted bool `json:"already_submitted"`
}

// FormDetailView öğrencinin gördüğü form detayıdır. Kurallar yalnızca
// görüntüleme içindir; asıl karar başvuru anında kilitler altında verilir.
type FormDetailView struct {
	Form             models.Form              `json:"form"`
	Questions        []models.Question        `json:"questions"`
	EligibilityRules []models.EligibilityRule `json:"eligibility_rules"`
	AlreadySubmitted bool                     `json:"already_submitted"`
}

// SlotAnalyticsRow yönetim tarafındaki slot doluluk satırıdır.
type SlotAnalyticsRow struct {
	models.Slot
	RemainingCapacity int `json:"remaining"`
}

// IFormService form-yazarlık ve salt okunur form görünümleridir.
// Yaşam döngüsü geçişleri IFormLifecycleService'te, başvuru akışı
// ISubmissionService'tedir.
type IFormService interface {
	CreateForm(ctx context.Context, input CreateFormInput) (*models.Form, error)
	AddQuestion(ctx context.Context, formID uint, input QuestionInput) (*models.Question, error)
	AddSlot(ctx context.Context, formID uint, input SlotInput) (*models.Slot, error)
	AddEligibilityRule(ctx context.Context, formID uint, input RuleInput) (*models.EligibilityRule, error)
	DeleteQuestion(ctx context.Context, formID, questionID uint) error
	DeleteSlot(ctx context.Context, formID, slotID uint) error

	ListFormsPaginated(ctx context.Context, params queryparams.ListParams) (*queryparams.PaginatedResult, error)
	ListOpenFormsForStudent(ctx context.Context, studentID uint) ([]OpenFormView, error)
	GetFormDetailForStudent(ctx context.Context, formID, studentID uint) (*FormDetailView, error)
	GetSlotsForForm(ctx context.Context, formID uint) ([]models.Slot, error)
	GetSlotAnalytics(ctx context.Context, formID uint) ([]SlotAnalyticsRow, error)
}

// FormService IFormService arayüzünü uygular.
type FormService struct {
	db           *gorm.DB
	repo         repositories.IFormRepository
	slotRepo     repositories.ISlotRepository
	responseRepo repositories.IResponseRepository
	cache        formcache.IFormCache
}

// NewFormService global bağlantı ve Redis önbelleğiyle servis oluşturur.
func NewFormService() IFormService {
	return NewFormServiceWithDB(configs.GetDB(), formcache.NewRedisFormCache(configsredis.GetRedis()))
}

// NewFormServiceWithDB verilen bağlantı ve önbellekle servis oluşturur.
func NewFormServiceWithDB(db *gorm.DB, cache formcache.IFormCache) IFormService {
	if cache == nil {
		cache = formcache.NoopFormCache{}
	}
	return &FormService{
		db:           db,
		repo:         repositories.NewFormRepositoryTx(db),
		slotRepo:     repositories.NewSlotRepositoryTx(db),
		responseRepo: repositories.NewResponseRepositoryTx(db),
		cache:        cache,
	}
}

// CreateForm yeni bir taslak form oluşturur.
func (s *FormService) CreateForm(ctx context.Context, input CreateFormInput) (*models.Form, error) {
	if input.Title == "" {
		return nil, apperrors.New(apperrors.KindValidation, "form başlığı zorunludur")
	}
	if input.MaxResponses != nil && *input.MaxResponses <= 0 {
		return nil, apperrors.New(apperrors.KindValidation, "yanıt limiti pozitif olmalıdır")
	}

	form := &models.Form{
		Title:        input.Title,
		Description:  input.Description,
		TestDate:     input.TestDate,
		Status:       models.FormStatusDraft,
		MaxResponses: input.MaxResponses,
	}
	if err := s.repo.Create(ctx, form); err != nil {
		configslog.Log.Error("CreateForm failed", zap.String("title", input.Title), zap.Error(err))
		return nil, err
	}
	configslog.SLog.Infof("Taslak form oluşturuldu: ID %d, Başlık: %s", form.ID, form.Title)
	return form, nil
}

// requireDraftLocked formu kilitler ve DRAFT durumunda olmasını şart koşar.
func requireDraftLocked(ctx context.Context, repo repositories.IFormRepository, formID uint) (*models.Form, error) {
	form, err := repo.FindByIDForUpdate(ctx, formID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "form bulunamadı")
		}
		return nil, err
	}
	if form.Status != models.FormStatusDraft {
		return nil, apperrors.New(apperrors.KindStateConflict, "form taslak durumunda değil")
	}
	return form, nil
}

// AddQuestion taslak forma soru ekler.
func (s *FormService) AddQuestion(ctx context.Context, formID uint, input QuestionInput) (*models.Question, error) {
	if input.QuestionText == "" || input.InputType == "" {
		return nil, apperrors.New(apperrors.KindValidation, "soru metni ve girdi türü zorunludur")
	}

	question := &models.Question{
		FormID:       formID,
		QuestionText: input.QuestionText,
		InputType:    input.InputType,
		IsRequired:   input.IsRequired == nil || *input.IsRequired,
	}
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		repoTx := repositories.NewFormRepositoryTx(tx)
		if _, err := requireDraftLocked(ctx, repoTx, formID); err != nil {
			return err
		}
		return repoTx.AddQuestion(ctx, question)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.cache.Invalidate(ctx, formID)
	return question, nil
}

// AddSlot taslak forma slot ekler.
func (s *FormService) AddSlot(ctx context.Context, formID uint, input SlotInput) (*models.Slot, error) {
	if input.SlotDate.IsZero() || input.StartTime == "" || input.EndTime == "" {
		return nil, apperrors.New(apperrors.KindValidation, "slot tarihi ve saatleri zorunludur")
	}
	if input.MaxCapacity <= 0 {
		return nil, apperrors.New(apperrors.KindValidation, "slot kapasitesi pozitif olmalıdır")
	}

	slot := &models.Slot{
		FormID:      formID,
		SlotDate:    input.SlotDate,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		MaxCapacity: input.MaxCapacity,
	}
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		repoTx := repositories.NewFormRepositoryTx(tx)
		slotRepoTx := repositories.NewSlotRepositoryTx(tx)
		if _, err := requireDraftLocked(ctx, repoTx, formID); err != nil {
			return err
		}
		return slotRepoTx.Create(ctx, slot)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.cache.Invalidate(ctx, formID)
	return slot, nil
}

// AddEligibilityRule taslak forma kural ekler. Operatör ve kaynak burada,
// oluşturma anında doğrulanır; değerlendiriciye bilinmeyen operatör
// ulaşması konfigürasyon hatasıdır.
func (s *FormService) AddEligibilityRule(ctx context.Context, formID uint, input RuleInput) (*models.EligibilityRule, error) {
	if !input.Source.Valid() {
		return nil, apperrors.Newf(apperrors.KindValidation, "geçersiz kural kaynağı: %q", string(input.Source))
	}
	if !input.Operator.Valid() {
		return nil, apperrors.Newf(apperrors.KindValidation, "geçersiz kural operatörü: %q", string(input.Operator))
	}
	if input.Value == "" {
		return nil, apperrors.New(apperrors.KindValidation, "kural değeri zorunludur")
	}
	if input.Source == models.RuleSourceStudent && input.StudentField == "" {
		return nil, apperrors.New(apperrors.KindValidation, "STUDENT kuralı için öğrenci alanı zorunludur")
	}
	if input.Source == models.RuleSourceAnswer && (input.QuestionID == nil || *input.QuestionID == 0) {
		return nil, apperrors.New(apperrors.KindValidation, "ANSWER kuralı için soru kimliği zorunludur")
	}

	rule := &models.EligibilityRule{
		FormID:       formID,
		Source:       input.Source,
		StudentField: input.StudentField,
		QuestionID:   input.QuestionID,
		Operator:     input.Operator,
		Value:        input.Value,
	}
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		repoTx := repositories.NewFormRepositoryTx(tx)
		if _, err := requireDraftLocked(ctx, repoTx, formID); err != nil {
			return err
		}
		return repoTx.AddEligibilityRule(ctx, rule)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.cache.Invalidate(ctx, formID)
	return rule, nil
}

// DeleteQuestion taslak formdan soru siler.
func (s *FormService) DeleteQuestion(ctx context.Context, formID, questionID uint) error {
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		repoTx := repositories.NewFormRepositoryTx(tx)
		if _, err := requireDraftLocked(ctx, repoTx, formID); err != nil {
			return err
		}
		if err := repoTx.DeleteQuestion(ctx, formID, questionID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.New(apperrors.KindNotFound, "soru bulunamadı")
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	s.cache.Invalidate(ctx, formID)
	return nil
}

// DeleteSlot taslak formdan slot siler.
func (s *FormService) DeleteSlot(ctx context.Context, formID, slotID uint) error {
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		repoTx := repositories.NewFormRepositoryTx(tx)
		slotRepoTx := repositories.NewSlotRepositoryTx(tx)

		if _, err := requireDraftLocked(ctx, repoTx, formID); err != nil {
			return err
		}
		slot, err := slotRepoTx.FindByID(ctx, slotID)
		if err != nil || slot.FormID != formID {
			return apperrors.New(apperrors.KindNotFound, "slot bulunamadı")
		}
		return slotRepoTx.Delete(ctx, slot)
	})
	if txErr != nil {
		return txErr
	}

	s.cache.Invalidate(ctx, formID)
	return nil
}

// ListFormsPaginated yönetim listesini sayfalayarak döndürür.
func (s *FormService) ListFormsPaginated(ctx context.Context, params queryparams.ListParams) (*queryparams.PaginatedResult, error) {
	params.Validate()

	forms, totalCount, err := s.repo.FindAllPaginated(ctx, params)
	if err != nil {
		return nil, err
	}
	return &queryparams.PaginatedResult{
		Data: forms,
		Meta: queryparams.PaginationMeta{
			CurrentPage: params.Page,
			PerPage:     params.PerPage,
			TotalItems:  totalCount,
			TotalPages:  queryparams.CalculateTotalPages(totalCount, params.PerPage),
		},
	}, nil
}

// ListOpenFormsForStudent açık formları, öğrencinin başvurusu olup
// olmadığı bilgisiyle döndürür.
func (s *FormService) ListOpenFormsForStudent(ctx context.Context, studentID uint) ([]OpenFormView, error) {
	forms, err := s.repo.FindOpenForms(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]OpenFormView, 0, len(forms))
	for _, form := range forms {
		submitted, err := s.responseRepo.ExistsByFormAndStudent(ctx, form.ID, studentID)
		if err != nil {
			return nil, err
		}
		views = append(views, OpenFormView{Form: form, AlreadySubmitted: submitted})
	}
	return views, nil
}

// cachedFormDetail önbelleğe yazılan, öğrenciden bağımsız kısımdır.
type cachedFormDetail struct {
	Form             models.Form              `json:"form"`
	Questions        []models.Question        `json:"questions"`
	EligibilityRules []models.EligibilityRule `json:"eligibility_rules"`
}

// GetFormDetailForStudent form detayını döndürür. Statik kısım (form,
// sorular, kurallar) Redis'ten gelir; önbellek yetkili değildir, yaşam
// döngüsü geçişlerinde geçersiz kılınır. AlreadySubmitted her istekte
// taze hesaplanır.
func (s *FormService) GetFormDetailForStudent(ctx context.Context, formID, studentID uint) (*FormDetailView, error) {
	var detail cachedFormDetail

	if payload, hit := s.cache.GetFormDetail(ctx, formID); hit {
		if err := json.Unmarshal(payload, &detail); err != nil {
			configslog.Log.Warn("Form önbelleği çözümlenemedi, veritabanına düşülüyor",
				zap.Uint("form_id", formID), zap.Error(err))
			detail = cachedFormDetail{}
		}
	}

	if detail.Form.ID == 0 {
		form, err := s.repo.FindByIDWithChildren(ctx, formID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, apperrors.New(apperrors.KindNotFound, "form bulunamadı")
			}
			return nil, err
		}
		detail = cachedFormDetail{
			Form:             *form,
			Questions:        form.Questions,
			EligibilityRules: form.EligibilityRules,
		}
		detail.Form.Questions = nil
		detail.Form.Slots = nil
		detail.Form.EligibilityRules = nil

		if payload, err := json.Marshal(detail); err == nil {
			s.cache.SetFormDetail(ctx, formID, payload)
		}
	}

	submitted, err := s.responseRepo.ExistsByFormAndStudent(ctx, formID, studentID)
	if err != nil {
		return nil, err
	}

	return &FormDetailView{
		Form:             detail.Form,
		Questions:        detail.Questions,
		EligibilityRules: detail.EligibilityRules,
		AlreadySubmitted: submitted,
	}, nil
}

// GetSlotsForForm formun slotlarını döndürür. Sayaçlar anlık görüntüdür;
// yetkili karar her zaman başvuru transaction'ında verilir.
func (s *FormService) GetSlotsForForm(ctx context.Context, formID uint) ([]models.Slot, error) {
	if _, err := s.repo.FindByID(ctx, formID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "form bulunamadı")
		}
		return nil, err
	}
	return s.slotRepo.FindByFormID(ctx, formID)
}

// GetSlotAnalytics slot doluluk tablosunu döndürür.
func (s *FormService) GetSlotAnalytics(ctx context.Context, formID uint) ([]SlotAnalyticsRow, error) {
	slots, err := s.GetSlotsForForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	rows := make([]SlotAnalyticsRow, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, SlotAnalyticsRow{Slot: slot, RemainingCapacity: slot.Remaining()})
	}
	return rows, nil
}

var _ IFormService = (*FormService)(nil)
