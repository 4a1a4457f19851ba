package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindStateConflict, http.StatusConflict},
		{KindConflict, http.StatusConflict},
		{KindCapacityExceeded, http.StatusConflict},
		{KindEligibilityDenied, http.StatusForbidden},
		{KindValidation, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if got := HTTPStatus(New(tt.kind, "x")); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, beklenen %d", tt.kind, got, tt.want)
		}
	}

	if got := HTTPStatus(errors.New("ham hata")); got != http.StatusInternalServerError {
		t.Errorf("tanınmayan hata 500 olmalı, %d", got)
	}
}

func TestHTTPStatusWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("başvuru işlenemedi: %w", New(KindCapacityExceeded, "slot dolu"))
	if got := HTTPStatus(wrapped); got != http.StatusConflict {
		t.Errorf("sarılmış hata da eşlenmeli, %d", got)
	}
}

func TestIsKind(t *testing.T) {
	err := New(KindNotFound, "form bulunamadı")
	if !IsKind(err, KindNotFound) {
		t.Error("IsKind kendi türünü tanımalı")
	}
	if IsKind(err, KindValidation) {
		t.Error("IsKind farklı türü eşleştirmemeli")
	}
	if IsKind(nil, KindNotFound) {
		t.Error("nil hata hiçbir türe eşlenmemeli")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(New(KindValidation, "x")); got != KindValidation {
		t.Errorf("KindOf = %s", got)
	}
	if got := KindOf(errors.New("ham")); got != "" {
		t.Errorf("AppError olmayan hata boş tür döndürmeli, %q", got)
	}
}
