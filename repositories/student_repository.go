package repositories

import (
	"context"
	"errors"

	"kayit.link/configs"
	"kayit.link/configs/configslog"
	"kayit.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IStudentRepository öğrenci kayıtlarına salt okunur erişim sağlar.
// Öğrenci oluşturma kimlik doğrulama alt sisteminin işidir; burada yalnızca
// test ve tohumlama için Create bulunur.
type IStudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id uint) (*models.Student, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
}

// StudentRepository IStudentRepository arayüzünü uygular.
type StudentRepository struct {
	db *gorm.DB
}

// NewStudentRepository global bağlantıyla repository oluşturur.
func NewStudentRepository() IStudentRepository {
	return NewStudentRepositoryTx(configs.GetDB())
}

// NewStudentRepositoryTx verilen transaction/bağlantı ile repository oluşturur.
func NewStudentRepositoryTx(tx *gorm.DB) IStudentRepository {
	return &StudentRepository{db: tx}
}

func (r *StudentRepository) getDB(ctx context.Context) *gorm.DB {
	return dbWithContext(ctx, r.db)
}

// Create yeni bir öğrenci kaydı ekler.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student == nil || student.Email == "" {
		return errors.New("geçersiz öğrenci kaydı")
	}
	err := r.getDB(ctx).Create(student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		configslog.Log.Error("StudentRepository.Create: DB error", zap.String("email", student.Email), zap.Error(err))
		return err
	}
	return nil
}

// FindByID öğrenciyi bulur.
func (r *StudentRepository) FindByID(ctx context.Context, id uint) (*models.Student, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var student models.Student
	err := r.getDB(ctx).First(&student, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("StudentRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &student, nil
}

// FindByEmail öğrenciyi e-postasıyla bulur.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	if email == "" {
		return nil, ErrNotFound
	}
	var student models.Student
	err := r.getDB(ctx).Where("email = ?", email).First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("StudentRepository.FindByEmail: DB error", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return &student, nil
}

var _ IStudentRepository = (*StudentRepository)(nil)
