package services

import (
	"context"
	"errors"

	"kayit.link/configs"
	"kayit.link/configs/configslog"
	"kayit.link/configs/configsredis"
	"kayit.link/models"
	"kayit.link/pkg/apperrors"
	"kayit.link/pkg/formcache"
	"kayit.link/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AnswerInput başvuruyla gelen tek bir cevaptır.
type AnswerInput struct {
	QuestionID uint   `json:"question_id"`
	Value      string `json:"value"`
}

// ISubmissionService başvurma ve geri çekme işlemlerinin koordinatörüdür.
// Her iki işlem de tek bir all-or-nothing transaction'dır; kilit sırası
// her zaman önce Form, sonra Slot'tur ki karşıt yönlü iki çağrı
// birbirini deadlock'a sokamasın.
type ISubmissionService interface {
	Submit(ctx context.Context, formID, studentID, slotID uint, answers []AnswerInput) error
	Withdraw(ctx context.Context, formID, studentID uint) error
}

// SubmissionService ISubmissionService arayüzünü uygular.
type SubmissionService struct {
	db    *gorm.DB
	cache formcache.IFormCache
}

// NewSubmissionService global bağlantı ve Redis önbelleğiyle servis oluşturur.
func NewSubmissionService() ISubmissionService {
	return NewSubmissionServiceWithDB(configs.GetDB(), formcache.NewRedisFormCache(configsredis.GetRedis()))
}

// NewSubmissionServiceWithDB verilen bağlantı ve önbellekle servis oluşturur.
func NewSubmissionServiceWithDB(db *gorm.DB, cache formcache.IFormCache) ISubmissionService {
	if cache == nil {
		cache = formcache.NoopFormCache{}
	}
	return &SubmissionService{db: db, cache: cache}
}

// closeExhaustedForm kapasitesi dolan formu ana transaction'ın DIŞINDA
// kapatır. İçeride kapatılsaydı rollback kapanışı da geri alırdı; burada
// ayrı bir korumalı update ile kapanış sonraki okuyuculara hemen görünür.
func (s *SubmissionService) closeExhaustedForm(ctx context.Context, formID uint) {
	repo := repositories.NewFormRepositoryTx(s.db)
	ok, err := repo.UpdateStatusIf(ctx, formID, models.FormStatusOpen, models.FormStatusClosed)
	if err != nil {
		configslog.Log.Error("Kapasitesi dolan form kapatılamadı", zap.Uint("form_id", formID), zap.Error(err))
		return
	}
	if ok {
		s.cache.Invalidate(ctx, formID)
		configslog.SLog.Infof("Form kapasitesi dolduğu için kapatıldı: ID %d", formID)
	}
}

// Submit başvuruyu tek transaction içinde işler:
//  1. Form satırını kilitle; OPEN ve (takipteyse) kapasitesi dolmamış olmalı.
//  2. Slot satırını kilitle (kilit sırası: Form -> Slot).
//  3. Uygunluğu değerlendir; kilitler altında tutarlı anlık görüntü,
//     ama henüz kontenjan harcanmadan.
//  4. Başvuruyu ve cevaplarını yaz; (form, öğrenci) tekilliği depolama
//     katmanında zorlanır.
//  5. Slot sayacını korumalı update ile artır.
//  6. Form yanıt sayacını korumalı update ile artır; dolmuşsa form kapanır.
//
// Herhangi bir adım başarısız olursa transaction'ın tamamı geri alınır;
// kısmi durum asla dışarıdan görülmez.
func (s *SubmissionService) Submit(ctx context.Context, formID, studentID, slotID uint, answers []AnswerInput) error {
	if formID == 0 || studentID == 0 || slotID == 0 {
		return apperrors.New(apperrors.KindValidation, "form, öğrenci ve slot kimlikleri zorunludur")
	}

	var closeFormAfterRollback bool

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		formRepo := repositories.NewFormRepositoryTx(tx)
		slotRepo := repositories.NewSlotRepositoryTx(tx)
		responseRepo := repositories.NewResponseRepositoryTx(tx)
		studentRepo := repositories.NewStudentRepositoryTx(tx)

		// 1. Form kilidi ve yaşam döngüsü kontrolü
		form, err := formRepo.FindByIDForUpdate(ctx, formID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.New(apperrors.KindNotFound, "form bulunamadı")
			}
			return err
		}
		if form.Status != models.FormStatusOpen {
			return apperrors.New(apperrors.KindStateConflict, "üzgünüz, form başvuruya kapalı")
		}
		if form.CapacityExhausted() {
			closeFormAfterRollback = true
			return apperrors.New(apperrors.KindStateConflict, "üzgünüz, form başvuruya kapalı")
		}

		// 2. Slot kilidi
		slot, err := slotRepo.FindByIDForUpdate(ctx, slotID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.New(apperrors.KindNotFound, "geçersiz slot")
			}
			return err
		}
		if slot.FormID != form.ID {
			return apperrors.New(apperrors.KindValidation, "slot bu forma ait değil")
		}
		if slot.CurrentBookings >= slot.MaxCapacity {
			return apperrors.New(apperrors.KindCapacityExceeded, "seçilen slot dolu")
		}

		// 3. Uygunluk (kilitler altında, kontenjan harcanmadan önce)
		student, err := studentRepo.FindByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.New(apperrors.KindNotFound, "öğrenci kaydı bulunamadı")
			}
			return err
		}
		rules, err := formRepo.FindRulesByFormID(ctx, formID)
		if err != nil {
			return err
		}
		answersMap := make(map[uint]string, len(answers))
		for _, ans := range answers {
			answersMap[ans.QuestionID] = ans.Value
		}
		if err := CheckEligibility(rules, student, answersMap); err != nil {
			return err
		}

		// 4. Başvuru ve cevaplar
		response := &models.Response{
			FormID:    formID,
			StudentID: studentID,
			SlotID:    slotID,
		}
		for _, ans := range answers {
			response.Answers = append(response.Answers, models.ResponseAnswer{
				QuestionID: ans.QuestionID,
				Answer:     ans.Value,
			})
		}
		if err := responseRepo.Create(ctx, response); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return apperrors.New(apperrors.KindConflict, "bu forma zaten başvurdunuz")
			}
			return err
		}

		// 5. Slot sayacı (korumalı artış)
		reserved, err := slotRepo.Reserve(ctx, slotID)
		if err != nil {
			return err
		}
		if !reserved {
			return apperrors.New(apperrors.KindCapacityExceeded, "seçilen slot dolu")
		}

		// 6. Form sayacı (korumalı artış; MaxResponses NULL ise sınırsız)
		incremented, err := formRepo.IncrementResponses(ctx, formID)
		if err != nil {
			return err
		}
		if !incremented {
			closeFormAfterRollback = true
			return apperrors.New(apperrors.KindStateConflict, "üzgünüz, form başvuruya kapalı")
		}

		return nil
	})

	if closeFormAfterRollback {
		s.closeExhaustedForm(ctx, formID)
	}
	if txErr != nil {
		return txErr
	}

	configslog.SLog.Infof("Başvuru alındı: form %d, öğrenci %d, slot %d", formID, studentID, slotID)
	return nil
}

// Withdraw mevcut başvuruyu geri çeker ve sayaçları serbest bırakır.
// Form kapandıktan sonra geri çekme bilinçli olarak yasaktır: kayıt
// penceresi bittikten sonra kontenjan boşaltılamaz. Geri çekilen öğrenci
// form açıkken istediği slota (farklı bir slot dahil) yeniden başvurabilir.
func (s *SubmissionService) Withdraw(ctx context.Context, formID, studentID uint) error {
	if formID == 0 || studentID == 0 {
		return apperrors.New(apperrors.KindValidation, "form ve öğrenci kimlikleri zorunludur")
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		formRepo := repositories.NewFormRepositoryTx(tx)
		slotRepo := repositories.NewSlotRepositoryTx(tx)
		responseRepo := repositories.NewResponseRepositoryTx(tx)

		// 1. Form kilidi; yalnızca OPEN formdan geri çekilebilir
		form, err := formRepo.FindByIDForUpdate(ctx, formID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.New(apperrors.KindNotFound, "form bulunamadı")
			}
			return err
		}
		if form.Status != models.FormStatusOpen {
			return apperrors.New(apperrors.KindStateConflict, "form açık değilken başvuru geri çekilemez")
		}

		// 2. Başvuru kilidi
		response, err := responseRepo.FindByFormAndStudentForUpdate(ctx, formID, studentID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.New(apperrors.KindNotFound, "geri çekilecek başvuru bulunamadı")
			}
			return err
		}

		// 3. Başvuru ve cevaplar silinir
		if err := responseRepo.DeleteWithAnswers(ctx, response); err != nil {
			return err
		}

		// 4-5. Sayaçlar serbest bırakılır (tabanı sıfır)
		if err := slotRepo.Release(ctx, response.SlotID); err != nil {
			return err
		}
		if err := formRepo.DecrementResponses(ctx, formID); err != nil {
			return err
		}

		return nil
	})
	if txErr != nil {
		return txErr
	}

	configslog.SLog.Infof("Başvuru geri çekildi: form %d, öğrenci %d", formID, studentID)
	return nil
}

var _ ISubmissionService = (*SubmissionService)(nil)
