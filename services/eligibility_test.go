package services

import (
	"testing"

	"kayit.link/models"
	"kayit.link/pkg/apperrors"
)

func TestEvaluateOperator(t *testing.T) {
	tests := []struct {
		name     string
		actual   string
		operator models.RuleOperator
		expected string
		want     bool
	}{
		{"gte sınırın altında", "6.5", models.RuleOpGTE, "7", false},
		{"gte tam sınırda", "7.0", models.RuleOpGTE, "7", true},
		{"gte sınırın üstünde", "8.25", models.RuleOpGTE, "7", true},
		{"lte sınırın üstünde", "4", models.RuleOpLTE, "3", false},
		{"lte tam sınırda", "3", models.RuleOpLTE, "3", true},
		{"gte sayı olmayan değer", "üç buçuk", models.RuleOpGTE, "3.5", false},
		{"gte sayı olmayan beklenen", "3.5", models.RuleOpGTE, "yüksek", false},
		{"eşitlik sağlanıyor", "CENG", models.RuleOpEQ, "CENG", true},
		{"eşitlik büyük/küçük harfe duyarlı", "ceng", models.RuleOpEQ, "CENG", false},
		{"liste üyeliği var", "EEE", models.RuleOpIn, "CENG, EEE, MATH", true},
		{"liste üyeliği yok", "PHYS", models.RuleOpIn, "CENG, EEE, MATH", false},
		{"liste tek elemanlı", "CENG", models.RuleOpIn, "CENG", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluateOperator(tt.actual, tt.operator, tt.expected)
			if err != nil {
				t.Fatalf("beklenmeyen hata: %v", err)
			}
			if got != tt.want {
				t.Errorf("evaluateOperator(%q, %q, %q) = %v, beklenen %v",
					tt.actual, tt.operator, tt.expected, got, tt.want)
			}
		})
	}
}

func TestEvaluateOperatorUnknown(t *testing.T) {
	_, err := evaluateOperator("1", models.RuleOperator("!="), "2")
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("bilinmeyen operatör ValidationError üretmeli, geldi: %v", err)
	}
}

func TestCheckEligibilityNoRules(t *testing.T) {
	student := &models.Student{Year: 1}
	if err := CheckEligibility(nil, student, nil); err != nil {
		t.Fatalf("kuralsız form herkese açık olmalı, geldi: %v", err)
	}
}

func TestCheckEligibilityStudentFields(t *testing.T) {
	student := &models.Student{
		Email:      "ali@example.edu",
		Department: "CENG",
		Year:       3,
	}

	passing := []models.EligibilityRule{
		{Source: models.RuleSourceStudent, StudentField: "year", Operator: models.RuleOpGTE, Value: "3"},
		{Source: models.RuleSourceStudent, StudentField: "department", Operator: models.RuleOpIn, Value: "CENG,EEE"},
	}
	if err := CheckEligibility(passing, student, nil); err != nil {
		t.Fatalf("kurallar sağlanıyor olmalıydı: %v", err)
	}

	failing := []models.EligibilityRule{
		{Source: models.RuleSourceStudent, StudentField: "year", Operator: models.RuleOpGTE, Value: "4"},
	}
	err := CheckEligibility(failing, student, nil)
	if !apperrors.IsKind(err, apperrors.KindEligibilityDenied) {
		t.Fatalf("yıl kuralı düşmeli, geldi: %v", err)
	}
}

func TestCheckEligibilityUnknownStudentField(t *testing.T) {
	student := &models.Student{Year: 3}
	rules := []models.EligibilityRule{
		{Source: models.RuleSourceStudent, StudentField: "gpa", Operator: models.RuleOpGTE, Value: "2"},
	}
	err := CheckEligibility(rules, student, nil)
	if !apperrors.IsKind(err, apperrors.KindEligibilityDenied) {
		t.Fatalf("bilinmeyen alan kuralı sağlamamalı, geldi: %v", err)
	}
}

func TestCheckEligibilityAnswerSource(t *testing.T) {
	questionID := uint(42)
	rules := []models.EligibilityRule{
		{Source: models.RuleSourceAnswer, QuestionID: &questionID, Operator: models.RuleOpGTE, Value: "2.5"},
	}
	student := &models.Student{}

	if err := CheckEligibility(rules, student, map[uint]string{42: "3.1"}); err != nil {
		t.Fatalf("cevap kuralı sağlanıyor olmalıydı: %v", err)
	}

	err := CheckEligibility(rules, student, map[uint]string{42: "2.4"})
	if !apperrors.IsKind(err, apperrors.KindEligibilityDenied) {
		t.Fatalf("sınırın altındaki cevap düşmeli, geldi: %v", err)
	}

	// Cevaplanmamış soru kuralı sağlamaz.
	err = CheckEligibility(rules, student, map[uint]string{})
	if !apperrors.IsKind(err, apperrors.KindEligibilityDenied) {
		t.Fatalf("cevaplanmamış soru kuralı sağlamamalı, geldi: %v", err)
	}
}

func TestCheckEligibilityStopsAtFirstFailure(t *testing.T) {
	student := &models.Student{Department: "PHYS", Year: 4}
	rules := []models.EligibilityRule{
		{Source: models.RuleSourceStudent, StudentField: "department", Operator: models.RuleOpIn, Value: "CENG,EEE"},
		// Geçersiz operatör ikinci sırada; ilk kural düştüğü için
		// değerlendiriciye hiç ulaşmamalı.
		{Source: models.RuleSourceStudent, StudentField: "year", Operator: models.RuleOperator("!="), Value: "1"},
	}
	err := CheckEligibility(rules, student, nil)
	if !apperrors.IsKind(err, apperrors.KindEligibilityDenied) {
		t.Fatalf("ilk kuralda durulmalı, geldi: %v", err)
	}
}
