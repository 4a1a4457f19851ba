package services

import (
	"strconv"
	"strings"

	"kayit.link/configs/configslog"
	"kayit.link/models"
	"kayit.link/pkg/apperrors"

	"go.uber.org/zap"
)

// Uygunluk değerlendirici: saf fonksiyonlar, yan etki yok. Kilitler
// tutulurken çağrılabilir çünkü hiçbir I/O yapmaz.

// evaluateOperator tek bir karşılaştırmayı çalıştırır. Sayısal
// operatörlerde sayıya çevrilemeyen değer kuralı sessizce düşürür
// (uygunsuz sayılır, hata değil). Bilinmeyen operatör konfigürasyon
// hatasıdır ve ValidationError üretir.
func evaluateOperator(actual string, operator models.RuleOperator, expected string) (bool, error) {
	switch operator {
	case models.RuleOpGTE, models.RuleOpLTE:
		actualNum, errA := strconv.ParseFloat(strings.TrimSpace(actual), 64)
		expectedNum, errE := strconv.ParseFloat(strings.TrimSpace(expected), 64)
		if errA != nil || errE != nil {
			return false, nil
		}
		if operator == models.RuleOpGTE {
			return actualNum >= expectedNum, nil
		}
		return actualNum <= expectedNum, nil
	case models.RuleOpEQ:
		return actual == expected, nil
	case models.RuleOpIn:
		for _, candidate := range strings.Split(expected, ",") {
			if strings.TrimSpace(candidate) == actual {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, apperrors.Newf(apperrors.KindValidation, "geçersiz kural operatörü: %q", string(operator))
	}
}

// ruleActualValue kuralın kaynağına göre karşılaştırılacak değeri bulur.
// Değer yoksa (bilinmeyen öğrenci alanı, cevaplanmamış soru) ikinci dönüş
// false olur ve kural sağlanmamış sayılır.
func ruleActualValue(rule models.EligibilityRule, student *models.Student, answers map[uint]string) (string, bool) {
	switch rule.Source {
	case models.RuleSourceStudent:
		if student == nil {
			return "", false
		}
		return student.FieldValue(rule.StudentField)
	case models.RuleSourceAnswer:
		if rule.QuestionID == nil {
			return "", false
		}
		value, ok := answers[*rule.QuestionID]
		return value, ok
	}
	return "", false
}

// CheckEligibility kural kümesini VE olarak değerlendirir; ilk sağlanmayan
// kuralda durur. Hangi kuralın düştüğü teşhis için loglanır ama dışarıya
// tek tip EligibilityDeniedError döner. Kuralsız form herkese açıktır.
func CheckEligibility(rules []models.EligibilityRule, student *models.Student, answers map[uint]string) error {
	for _, rule := range rules {
		actual, ok := ruleActualValue(rule, student, answers)
		passed := false
		if ok {
			var err error
			passed, err = evaluateOperator(actual, rule.Operator, rule.Value)
			if err != nil {
				return err
			}
		}
		if !passed {
			configslog.Log.Debug("Uygunluk kuralı sağlanmadı",
				zap.Uint("rule_id", rule.ID),
				zap.String("source", string(rule.Source)),
				zap.String("operator", string(rule.Operator)))
			return apperrors.Newf(apperrors.KindEligibilityDenied,
				"bu form için uygunluk koşullarını sağlamıyorsunuz (%s kuralı)", string(rule.Source))
		}
	}
	return nil
}
