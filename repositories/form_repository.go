package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"kayit.link/configs"
	"kayit.link/configs/configslog"
	"kayit.link/models"
	"kayit.link/pkg/queryparams"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IFormRepository form veritabanı işlemleri için arayüz.
// Durum ve sayaç mutasyonlarının tamamı korumalı (guarded) update'tir:
// koşul ve yazma tek statement'ta çalışır, kaybeden çağıran sıfır satır görür.
type IFormRepository interface {
	Create(ctx context.Context, form *models.Form) error
	FindByID(ctx context.Context, id uint) (*models.Form, error)
	FindByIDWithChildren(ctx context.Context, id uint) (*models.Form, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Form, error)
	FindAllPaginated(ctx context.Context, params queryparams.ListParams) ([]models.Form, int64, error)
	FindOpenForms(ctx context.Context) ([]models.Form, error)
	FindRulesByFormID(ctx context.Context, formID uint) ([]models.EligibilityRule, error)
	FindQuestionsByFormID(ctx context.Context, formID uint) ([]models.Question, error)

	// Form-yazarlık (yalnızca DRAFT; durum doğrulaması servis katmanında,
	// form kilidi altında yapılır).
	AddQuestion(ctx context.Context, question *models.Question) error
	AddEligibilityRule(ctx context.Context, rule *models.EligibilityRule) error
	DeleteQuestion(ctx context.Context, formID, questionID uint) error

	// Yaşam döngüsü geçişleri. Dönen bool geçişi bu çağıranın kazanıp
	// kazanmadığını söyler; false kaybedilmiş yarış veya yanlış durumdur.
	UpdateStatusIf(ctx context.Context, id uint, from, to models.FormStatus) (bool, error)
	SetSchedule(ctx context.Context, id uint, publishAt time.Time, closeAt *time.Time) (bool, error)
	DeleteDraftCascade(ctx context.Context, form *models.Form) error

	// Form seviyesi yanıt sayacı.
	IncrementResponses(ctx context.Context, id uint) (bool, error)
	DecrementResponses(ctx context.Context, id uint) error

	// Zamanlanmış geçiş sürücüsü.
	FindDuePublish(ctx context.Context, now time.Time) ([]models.Form, error)
	FindDueClose(ctx context.Context, now time.Time) ([]models.Form, error)
	MarkAutoOpened(ctx context.Context, id uint) (bool, error)
	MarkAutoClosed(ctx context.Context, id uint) (bool, error)
}

// FormRepository IFormRepository arayüzünü uygular.
type FormRepository struct {
	db   *gorm.DB
	base IBaseRepository[models.Form]
}

// NewFormRepository global bağlantıyla yeni bir FormRepository oluşturur.
func NewFormRepository() IFormRepository {
	return NewFormRepositoryTx(configs.GetDB())
}

// NewFormRepositoryTx verilen transaction/bağlantı ile repository oluşturur.
func NewFormRepositoryTx(tx *gorm.DB) IFormRepository {
	base := NewBaseRepository[models.Form](tx)
	base.SetAllowedSortColumns([]string{"id", "created_at", "title", "status"})
	return &FormRepository{db: tx, base: base}
}

func (r *FormRepository) getDB(ctx context.Context) *gorm.DB {
	return dbWithContext(ctx, r.db)
}

// Create yeni bir formu (varsa çocuklarıyla) oluşturur.
func (r *FormRepository) Create(ctx context.Context, form *models.Form) error {
	if form == nil {
		return errors.New("geçersiz form")
	}
	return r.getDB(ctx).Create(form).Error
}

// FindByID formu çocuklarını yüklemeden bulur.
func (r *FormRepository) FindByID(ctx context.Context, id uint) (*models.Form, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var form models.Form
	err := r.getDB(ctx).First(&form, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("FormRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &form, nil
}

// FindByIDWithChildren formu soruları, slotları ve kurallarıyla yükler.
func (r *FormRepository) FindByIDWithChildren(ctx context.Context, id uint) (*models.Form, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var form models.Form
	err := r.getDB(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("slot_date, start_time") }).
		Preload("EligibilityRules").
		First(&form, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("FormRepository.FindByIDWithChildren: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &form, nil
}

// FindByIDForUpdate form satırını münhasır kilitle alır. Kilit, içinde
// bulunulan transaction süresince tutulur. Kilit sırası her zaman önce
// Form, sonra Slot'tur.
func (r *FormRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Form, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var form models.Form
	err := lockForUpdate(r.getDB(ctx)).First(&form, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("FormRepository.FindByIDForUpdate: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &form, nil
}

// FindAllPaginated tüm formları sayfalayarak döndürür (yönetim listesi).
func (r *FormRepository) FindAllPaginated(ctx context.Context, params queryparams.ListParams) ([]models.Form, int64, error) {
	var forms []models.Form
	var totalCount int64
	db := r.getDB(ctx)

	query := db.Model(&models.Form{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Name != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(params.Name)+"%")
	}
	if err := query.Count(&totalCount).Error; err != nil {
		configslog.Log.Error("FormRepository.FindAllPaginated: count error", zap.Error(err))
		return nil, 0, err
	}
	if totalCount == 0 {
		return forms, 0, nil
	}

	orderColumn := r.base.OrderColumn(params.SortBy)
	err := query.Order(orderColumn + " " + params.OrderBy).
		Limit(params.PerPage).Offset(params.CalculateOffset()).
		Find(&forms).Error
	if err != nil {
		configslog.Log.Error("FormRepository.FindAllPaginated: find error", zap.Error(err))
		return nil, totalCount, err
	}
	return forms, totalCount, nil
}

// FindOpenForms başvuruya açık formları döndürür (öğrenci listesi).
func (r *FormRepository) FindOpenForms(ctx context.Context) ([]models.Form, error) {
	var forms []models.Form
	err := r.getDB(ctx).
		Where("status = ?", models.FormStatusOpen).
		Order("created_at DESC").
		Find(&forms).Error
	if err != nil {
		configslog.Log.Error("FormRepository.FindOpenForms: DB error", zap.Error(err))
		return nil, err
	}
	return forms, nil
}

// FindRulesByFormID formun uygunluk kurallarını döndürür.
func (r *FormRepository) FindRulesByFormID(ctx context.Context, formID uint) ([]models.EligibilityRule, error) {
	var rules []models.EligibilityRule
	err := r.getDB(ctx).Where("form_id = ?", formID).Find(&rules).Error
	if err != nil {
		configslog.Log.Error("FormRepository.FindRulesByFormID: DB error", zap.Uint("form_id", formID), zap.Error(err))
		return nil, err
	}
	return rules, nil
}

// FindQuestionsByFormID formun sorularını oluşturulma sırasıyla döndürür.
func (r *FormRepository) FindQuestionsByFormID(ctx context.Context, formID uint) ([]models.Question, error) {
	var questions []models.Question
	err := r.getDB(ctx).Where("form_id = ?", formID).Order("created_at").Find(&questions).Error
	if err != nil {
		configslog.Log.Error("FormRepository.FindQuestionsByFormID: DB error", zap.Uint("form_id", formID), zap.Error(err))
		return nil, err
	}
	return questions, nil
}

// AddQuestion forma yeni bir soru ekler.
func (r *FormRepository) AddQuestion(ctx context.Context, question *models.Question) error {
	if question == nil || question.FormID == 0 {
		return errors.New("geçersiz soru kaydı")
	}
	return r.getDB(ctx).Create(question).Error
}

// AddEligibilityRule forma yeni bir uygunluk kuralı ekler.
func (r *FormRepository) AddEligibilityRule(ctx context.Context, rule *models.EligibilityRule) error {
	if rule == nil || rule.FormID == 0 {
		return errors.New("geçersiz kural kaydı")
	}
	return r.getDB(ctx).Create(rule).Error
}

// DeleteQuestion soruyu formuna da bakarak siler; satır yoksa ErrNotFound.
func (r *FormRepository) DeleteQuestion(ctx context.Context, formID, questionID uint) error {
	result := r.getDB(ctx).Where("id = ? AND form_id = ?", questionID, formID).Delete(&models.Question{})
	if result.Error != nil {
		configslog.Log.Error("FormRepository.DeleteQuestion: DB error",
			zap.Uint("form_id", formID), zap.Uint("question_id", questionID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatusIf durumu yalnızca beklenen durumdan geçirir. Eşzamanlı iki
// geçiş denemesinden yalnızca biri satırı etkiler; diğeri false görür.
func (r *FormRepository) UpdateStatusIf(ctx context.Context, id uint, from, to models.FormStatus) (bool, error) {
	result := r.getDB(ctx).Model(&models.Form{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		configslog.Log.Error("FormRepository.UpdateStatusIf: DB error",
			zap.Uint("id", id), zap.String("from", string(from)), zap.String("to", string(to)), zap.Error(result.Error))
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetSchedule zamanlanmış yayınlama/kapatma anlarını DRAFT koşuluyla yazar
// ve auto bayraklarını sıfırlar ki sürücü geçişleri uygulayabilsin.
func (r *FormRepository) SetSchedule(ctx context.Context, id uint, publishAt time.Time, closeAt *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"scheduled_publish_at": publishAt,
		"scheduled_close_at":   closeAt,
		"auto_open":            false,
		"auto_close":           false,
	}
	result := r.getDB(ctx).Model(&models.Form{}).
		Where("id = ? AND status = ?", id, models.FormStatusDraft).
		Updates(updates)
	if result.Error != nil {
		configslog.Log.Error("FormRepository.SetSchedule: DB error", zap.Uint("id", id), zap.Error(result.Error))
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteDraftCascade DRAFT formdaki formu ve tüm çocuklarını siler.
// Durum koşulu çağıran transaction içinde kilitle doğrulanmış olmalıdır.
func (r *FormRepository) DeleteDraftCascade(ctx context.Context, form *models.Form) error {
	if form == nil || form.ID == 0 {
		return errors.New("silinecek form geçerli değil")
	}
	db := r.getDB(ctx)

	if err := db.Where("form_id = ?", form.ID).Delete(&models.EligibilityRule{}).Error; err != nil {
		return err
	}
	if err := db.Where("form_id = ?", form.ID).Delete(&models.Question{}).Error; err != nil {
		return err
	}
	if err := db.Where("form_id = ?", form.ID).Delete(&models.Slot{}).Error; err != nil {
		return err
	}

	result := db.Where("id = ? AND status = ?", form.ID, models.FormStatusDraft).Delete(&models.Form{})
	if result.Error != nil {
		configslog.Log.Error("FormRepository.DeleteDraftCascade: DB error", zap.Uint("id", form.ID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementResponses form sayacını limit dolmamışsa artırır.
// MaxResponses NULL ise limit yoktur, artış her zaman uygulanır.
func (r *FormRepository) IncrementResponses(ctx context.Context, id uint) (bool, error) {
	result := r.getDB(ctx).Model(&models.Form{}).
		Where("id = ? AND (max_responses IS NULL OR current_responses < max_responses)", id).
		UpdateColumn("current_responses", gorm.Expr("current_responses + 1"))
	if result.Error != nil {
		configslog.Log.Error("FormRepository.IncrementResponses: DB error", zap.Uint("id", id), zap.Error(result.Error))
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DecrementResponses sayacı azaltır, sıfırın altına inmez.
func (r *FormRepository) DecrementResponses(ctx context.Context, id uint) error {
	result := r.getDB(ctx).Model(&models.Form{}).
		Where("id = ? AND current_responses > 0", id).
		UpdateColumn("current_responses", gorm.Expr("current_responses - 1"))
	if result.Error != nil {
		configslog.Log.Error("FormRepository.DecrementResponses: DB error", zap.Uint("id", id), zap.Error(result.Error))
		return result.Error
	}
	return nil
}

// FindDuePublish zamanı gelmiş ve henüz otomatik açılmamış DRAFT formları bulur.
func (r *FormRepository) FindDuePublish(ctx context.Context, now time.Time) ([]models.Form, error) {
	var forms []models.Form
	err := r.getDB(ctx).
		Where("status = ? AND scheduled_publish_at IS NOT NULL AND scheduled_publish_at <= ? AND auto_open = ?",
			models.FormStatusDraft, now, false).
		Find(&forms).Error
	return forms, err
}

// FindDueClose zamanı gelmiş ve henüz otomatik kapanmamış OPEN formları bulur.
func (r *FormRepository) FindDueClose(ctx context.Context, now time.Time) ([]models.Form, error) {
	var forms []models.Form
	err := r.getDB(ctx).
		Where("status = ? AND scheduled_close_at IS NOT NULL AND scheduled_close_at <= ? AND auto_close = ?",
			models.FormStatusOpen, now, false).
		Find(&forms).Error
	return forms, err
}

// MarkAutoOpened durumu ve auto_open bayrağını tek korumalı update ile yazar.
// İkinci bir tur veya çökme sonrası tekrar aynı geçişi uygulayamaz.
func (r *FormRepository) MarkAutoOpened(ctx context.Context, id uint) (bool, error) {
	result := r.getDB(ctx).Model(&models.Form{}).
		Where("id = ? AND status = ? AND auto_open = ?", id, models.FormStatusDraft, false).
		Updates(map[string]interface{}{"status": models.FormStatusOpen, "auto_open": true})
	if result.Error != nil {
		configslog.Log.Error("FormRepository.MarkAutoOpened: DB error", zap.Uint("id", id), zap.Error(result.Error))
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkAutoClosed MarkAutoOpened'ın OPEN -> CLOSED simetriğidir.
func (r *FormRepository) MarkAutoClosed(ctx context.Context, id uint) (bool, error) {
	result := r.getDB(ctx).Model(&models.Form{}).
		Where("id = ? AND status = ? AND auto_close = ?", id, models.FormStatusOpen, false).
		Updates(map[string]interface{}{"status": models.FormStatusClosed, "auto_close": true})
	if result.Error != nil {
		configslog.Log.Error("FormRepository.MarkAutoClosed: DB error", zap.Uint("id", id), zap.Error(result.Error))
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

var _ IFormRepository = (*FormRepository)(nil)
