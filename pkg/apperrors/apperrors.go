package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind çekirdeğin üretebileceği hata türlerinin kapalı kümesidir.
// Servisler yeni tür icat etmez, bu kümeden seçer.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"          // Form/slot/başvuru bulunamadı
	KindStateConflict     Kind = "STATE_CONFLICT"     // Yaşam döngüsü ön koşulu sağlanmadı
	KindCapacityExceeded  Kind = "CAPACITY_EXCEEDED"  // Slot veya form sayacı doldu
	KindEligibilityDenied Kind = "ELIGIBILITY_DENIED" // Uygunluk kuralı sağlanmadı
	KindValidation        Kind = "VALIDATION"         // Geçersiz girdi
	KindConflict          Kind = "CONFLICT"           // Aynı (form, öğrenci) için ikinci başvuru
)

// AppError türü ve kullanıcıya gösterilebilir mesajı birlikte taşır.
type AppError struct {
	Kind    Kind
	Message string
}

func (e *AppError) Error() string { return e.Message }

// Is errors.Is ile tür bazlı karşılaştırmaya izin verir:
// errors.Is(err, apperrors.New(KindNotFound, "")) yerine IsKind kullanın.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New verilen tür ve mesajla yeni bir AppError oluşturur.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Newf formatlı mesajla yeni bir AppError oluşturur.
func Newf(kind Kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind err zincirinde verilen türde bir AppError olup olmadığına bakar.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Kind == kind
}

// KindOf err zincirindeki AppError türünü döndürür; yoksa boş string.
func KindOf(err error) Kind {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return ""
	}
	return appErr.Kind
}

// HTTPStatus hata türünü handler katmanının kullanacağı HTTP koduna çevirir.
// Tanınmayan hatalar 500 olarak raporlanır.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict, KindConflict:
		return http.StatusConflict
	case KindCapacityExceeded:
		return http.StatusConflict
	case KindEligibilityDenied:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
