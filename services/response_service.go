package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"kayit.link/configs"
	"kayit.link/pkg/apperrors"
	"kayit.link/repositories"

	"gorm.io/gorm"
)

// IResponseService yönetim tarafındaki başvuru görünümleridir:
// filtreli listeleme ve CSV dışa aktarma. Salt okunurdur, başvuru
// akışına karışmaz.
type IResponseService interface {
	ListFormResponses(ctx context.Context, formID uint, filters repositories.ResponseFilters) ([]repositories.ResponseListItem, error)
	ExportFormResponsesCSV(ctx context.Context, formID uint, w io.Writer) error
}

// ResponseService IResponseService arayüzünü uygular.
type ResponseService struct {
	formRepo     repositories.IFormRepository
	responseRepo repositories.IResponseRepository
}

// NewResponseService global bağlantıyla servis oluşturur.
func NewResponseService() IResponseService {
	return NewResponseServiceWithDB(configs.GetDB())
}

// NewResponseServiceWithDB verilen bağlantıyla servis oluşturur.
func NewResponseServiceWithDB(db *gorm.DB) IResponseService {
	return &ResponseService{
		formRepo:     repositories.NewFormRepositoryTx(db),
		responseRepo: repositories.NewResponseRepositoryTx(db),
	}
}

func (s *ResponseService) requireForm(ctx context.Context, formID uint) error {
	if _, err := s.formRepo.FindByID(ctx, formID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.New(apperrors.KindNotFound, "form bulunamadı")
		}
		return err
	}
	return nil
}

// ListFormResponses formun başvurularını isteğe bağlı slot/bölüm/yıl
// filtreleriyle döndürür.
func (s *ResponseService) ListFormResponses(ctx context.Context, formID uint, filters repositories.ResponseFilters) ([]repositories.ResponseListItem, error) {
	if err := s.requireForm(ctx, formID); err != nil {
		return nil, err
	}
	return s.responseRepo.FindByFormFiltered(ctx, formID, filters)
}

// ExportFormResponsesCSV başvuruları CSV olarak yazar. Sütunlar: öğrenci
// bilgileri, slot bilgisi ve oluşturulma sırasına göre birer soru sütunu.
func (s *ResponseService) ExportFormResponsesCSV(ctx context.Context, formID uint, w io.Writer) error {
	if err := s.requireForm(ctx, formID); err != nil {
		return err
	}

	questions, err := s.formRepo.FindQuestionsByFormID(ctx, formID)
	if err != nil {
		return err
	}
	items, err := s.responseRepo.FindByFormFiltered(ctx, formID, repositories.ResponseFilters{})
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)

	header := []string{"email", "name", "department", "year", "slot_date", "start_time", "end_time", "submitted_at"}
	for _, q := range questions {
		header = append(header, q.QuestionText)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("CSV başlığı yazılamadı: %w", err)
	}

	for _, item := range items {
		slotDate := ""
		if item.SlotDate != nil {
			slotDate = item.SlotDate.Format("2006-01-02")
		}
		row := []string{
			item.Email,
			item.Name,
			item.Department,
			strconv.Itoa(item.Year),
			slotDate,
			item.StartTime,
			item.EndTime,
			item.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		for _, q := range questions {
			row = append(row, item.Answers[q.ID])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("CSV satırı yazılamadı: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

var _ IResponseService = (*ResponseService)(nil)
