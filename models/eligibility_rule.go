package models

// RuleSource kuralın hangi veriye baktığını tanımlar.
type RuleSource string

const (
	RuleSourceStudent RuleSource = "STUDENT" // Öğrenci kaydındaki bir alan
	RuleSourceAnswer  RuleSource = "ANSWER"  // Başvuruda verilen bir cevap
)

// Valid bilinen bir kaynak olup olmadığını söyler.
func (s RuleSource) Valid() bool {
	return s == RuleSourceStudent || s == RuleSourceAnswer
}

// RuleOperator kural karşılaştırma operatörlerinin kapalı kümesidir.
// Bilinmeyen operatörler kural oluşturma anında reddedilir; değerlendirme
// sırasında görülmeleri konfigürasyon hatasıdır.
type RuleOperator string

const (
	RuleOpGTE RuleOperator = ">=" // Sayısal: büyük eşit
	RuleOpLTE RuleOperator = "<=" // Sayısal: küçük eşit
	RuleOpEQ  RuleOperator = "="  // String eşitliği
	RuleOpIn  RuleOperator = "IN" // Virgülle ayrılmış listede üyelik
)

// Valid bilinen bir operatör olup olmadığını söyler.
func (o RuleOperator) Valid() bool {
	switch o {
	case RuleOpGTE, RuleOpLTE, RuleOpEQ, RuleOpIn:
		return true
	}
	return false
}

// EligibilityRule bir formun başvuru kabulünü sınırlayan kuraldır.
// Kurallar oluşturulduktan sonra değişmez; küme VE (conjunction) olarak
// değerlendirilir, tümü geçmelidir.
type EligibilityRule struct {
	BaseModel
	FormID uint       `gorm:"not null;index" json:"form_id"`
	Source RuleSource `gorm:"type:varchar(10);not null" json:"source"`

	// Source == STUDENT ise StudentField, Source == ANSWER ise QuestionID dolu olur.
	StudentField string `gorm:"type:varchar(50)" json:"student_field,omitempty"`
	QuestionID   *uint  `gorm:"index" json:"question_id,omitempty"`

	Operator RuleOperator `gorm:"type:varchar(4);not null" json:"operator"`
	Value    string       `gorm:"type:text;not null" json:"value"`
}
