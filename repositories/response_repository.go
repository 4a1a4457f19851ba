package repositories

import (
	"context"
	"errors"
	"time"

	"kayit.link/configs"
	"kayit.link/configs/configslog"
	"kayit.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResponseFilters yönetim tarafındaki başvuru listesinin filtreleridir.
type ResponseFilters struct {
	SlotID     uint
	Department string
	Year       int
}

// ResponseListItem öğrenci ve slot bilgisiyle zenginleştirilmiş tek
// başvuru satırıdır; cevaplar soru ID'sine göre anahtarlanır.
type ResponseListItem struct {
	ResponseID  uint            `json:"response_id"`
	StudentID   uint            `json:"student_id"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Department  string          `json:"department"`
	Year        int             `json:"year"`
	SlotID      uint            `json:"slot_id"`
	SlotDate    *time.Time      `json:"slot_date,omitempty"`
	StartTime   string          `json:"start_time,omitempty"`
	EndTime     string          `json:"end_time,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Answers     map[uint]string `json:"answers"`
}

// IResponseRepository başvuru veritabanı işlemleri için arayüz.
type IResponseRepository interface {
	Create(ctx context.Context, response *models.Response) error
	FindByFormAndStudentForUpdate(ctx context.Context, formID, studentID uint) (*models.Response, error)
	ExistsByFormAndStudent(ctx context.Context, formID, studentID uint) (bool, error)
	DeleteWithAnswers(ctx context.Context, response *models.Response) error
	FindByFormFiltered(ctx context.Context, formID uint, filters ResponseFilters) ([]ResponseListItem, error)
}

// ResponseRepository IResponseRepository arayüzünü uygular.
type ResponseRepository struct {
	db *gorm.DB
}

// NewResponseRepository global bağlantıyla repository oluşturur.
func NewResponseRepository() IResponseRepository {
	return NewResponseRepositoryTx(configs.GetDB())
}

// NewResponseRepositoryTx verilen transaction/bağlantı ile repository oluşturur.
func NewResponseRepositoryTx(tx *gorm.DB) IResponseRepository {
	return &ResponseRepository{db: tx}
}

func (r *ResponseRepository) getDB(ctx context.Context) *gorm.DB {
	return dbWithContext(ctx, r.db)
}

// Create başvuruyu cevaplarıyla birlikte ekler. (form_id, student_id)
// tekilliği unique index'e çarpan ekleme ErrDuplicate döndürür; ikinci
// bir satır asla oluşmaz.
func (r *ResponseRepository) Create(ctx context.Context, response *models.Response) error {
	if response == nil || response.FormID == 0 || response.StudentID == 0 {
		return errors.New("geçersiz başvuru kaydı")
	}
	err := r.getDB(ctx).Create(response).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		configslog.Log.Error("ResponseRepository.Create: DB error",
			zap.Uint("form_id", response.FormID), zap.Uint("student_id", response.StudentID), zap.Error(err))
		return err
	}
	return nil
}

// FindByFormAndStudentForUpdate mevcut başvuruyu münhasır kilitle bulur.
func (r *ResponseRepository) FindByFormAndStudentForUpdate(ctx context.Context, formID, studentID uint) (*models.Response, error) {
	var response models.Response
	err := lockForUpdate(r.getDB(ctx)).
		Where("form_id = ? AND student_id = ?", formID, studentID).
		First(&response).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("ResponseRepository.FindByFormAndStudentForUpdate: DB error",
			zap.Uint("form_id", formID), zap.Uint("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return &response, nil
}

// ExistsByFormAndStudent öğrencinin bu forma başvurusu olup olmadığına bakar.
func (r *ResponseRepository) ExistsByFormAndStudent(ctx context.Context, formID, studentID uint) (bool, error) {
	var count int64
	err := r.getDB(ctx).Model(&models.Response{}).
		Where("form_id = ? AND student_id = ?", formID, studentID).
		Count(&count).Error
	if err != nil {
		configslog.Log.Error("ResponseRepository.ExistsByFormAndStudent: DB error",
			zap.Uint("form_id", formID), zap.Uint("student_id", studentID), zap.Error(err))
		return false, err
	}
	return count > 0, nil
}

// DeleteWithAnswers başvuruyu ve cevaplarını kalıcı olarak siler.
func (r *ResponseRepository) DeleteWithAnswers(ctx context.Context, response *models.Response) error {
	if response == nil || response.ID == 0 {
		return errors.New("silinecek başvuru geçerli değil")
	}
	db := r.getDB(ctx)
	if err := db.Where("response_id = ?", response.ID).Delete(&models.ResponseAnswer{}).Error; err != nil {
		configslog.Log.Error("ResponseRepository.DeleteWithAnswers: cevaplar silinemedi",
			zap.Uint("response_id", response.ID), zap.Error(err))
		return err
	}
	if err := db.Delete(&models.Response{}, response.ID).Error; err != nil {
		configslog.Log.Error("ResponseRepository.DeleteWithAnswers: başvuru silinemedi",
			zap.Uint("response_id", response.ID), zap.Error(err))
		return err
	}
	return nil
}

// responseRow JOIN sonucunun tarama hedefi.
type responseRow struct {
	ResponseID  uint
	StudentID   uint
	Email       string
	Name        string
	Department  string
	Year        int
	SlotID      uint
	SlotDate    *time.Time
	StartTime   string
	EndTime     string
	SubmittedAt time.Time
}

// FindByFormFiltered formun başvurularını öğrenci ve slot bilgisiyle,
// isteğe bağlı slot/bölüm/yıl filtreleriyle döndürür.
func (r *ResponseRepository) FindByFormFiltered(ctx context.Context, formID uint, filters ResponseFilters) ([]ResponseListItem, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Response{}).
		Select(`responses.id AS response_id,
			students.id AS student_id,
			students.email, students.name, students.department, students.year,
			responses.slot_id,
			slots.slot_date, slots.start_time, slots.end_time,
			responses.created_at AS submitted_at`).
		Joins("JOIN students ON students.id = responses.student_id").
		Joins("LEFT JOIN slots ON slots.id = responses.slot_id").
		Where("responses.form_id = ?", formID)

	if filters.SlotID != 0 {
		query = query.Where("responses.slot_id = ?", filters.SlotID)
	}
	if filters.Department != "" {
		query = query.Where("students.department = ?", filters.Department)
	}
	if filters.Year != 0 {
		query = query.Where("students.year = ?", filters.Year)
	}

	var rows []responseRow
	if err := query.Order("responses.created_at").Scan(&rows).Error; err != nil {
		configslog.Log.Error("ResponseRepository.FindByFormFiltered: DB error", zap.Uint("form_id", formID), zap.Error(err))
		return nil, err
	}
	if len(rows) == 0 {
		return []ResponseListItem{}, nil
	}

	responseIDs := make([]uint, 0, len(rows))
	for _, row := range rows {
		responseIDs = append(responseIDs, row.ResponseID)
	}

	var answers []models.ResponseAnswer
	if err := db.Where("response_id IN ?", responseIDs).Find(&answers).Error; err != nil {
		configslog.Log.Error("ResponseRepository.FindByFormFiltered: cevaplar yüklenemedi", zap.Uint("form_id", formID), zap.Error(err))
		return nil, err
	}
	answersByResponse := make(map[uint]map[uint]string, len(rows))
	for _, ans := range answers {
		if answersByResponse[ans.ResponseID] == nil {
			answersByResponse[ans.ResponseID] = map[uint]string{}
		}
		answersByResponse[ans.ResponseID][ans.QuestionID] = ans.Answer
	}

	items := make([]ResponseListItem, 0, len(rows))
	for _, row := range rows {
		item := ResponseListItem{
			ResponseID:  row.ResponseID,
			StudentID:   row.StudentID,
			Email:       row.Email,
			Name:        row.Name,
			Department:  row.Department,
			Year:        row.Year,
			SlotID:      row.SlotID,
			SlotDate:    row.SlotDate,
			StartTime:   row.StartTime,
			EndTime:     row.EndTime,
			SubmittedAt: row.SubmittedAt,
			Answers:     answersByResponse[row.ResponseID],
		}
		if item.Answers == nil {
			item.Answers = map[uint]string{}
		}
		items = append(items, item)
	}
	return items, nil
}

var _ IResponseRepository = (*ResponseRepository)(nil)
