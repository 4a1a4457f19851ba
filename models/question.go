package models

// Question form üzerindeki tek bir soruyu temsil eder.
// Yalnızca form DRAFT durumundayken eklenip silinebilir.
type Question struct {
	BaseModel
	FormID       uint   `gorm:"not null;index" json:"form_id"`
	QuestionText string `gorm:"type:text;not null" json:"question_text"`
	InputType    string `gorm:"type:varchar(30);not null" json:"input_type"`
	IsRequired   bool   `gorm:"not null;default:true" json:"is_required"`
}
