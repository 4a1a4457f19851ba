package models

import (
	"time"
)

// Response bir öğrencinin bir forma yaptığı tek başvurudur.
// (FormID, StudentID) tekilliği depolama katmanında unique index ile
// zorlanır; geri çekme kaydı siler, yerinde güncelleme yapılmaz.
// Soft delete kullanılmaz: geri çekilen öğrenci aynı forma yeniden
// başvurabilmelidir, unique index silinmiş satıra takılmamalıdır.
type Response struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	FormID    uint      `gorm:"not null;uniqueIndex:idx_responses_form_student" json:"form_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_responses_form_student" json:"student_id"`
	SlotID    uint      `gorm:"not null;index" json:"slot_id"`
	CreatedAt time.Time `json:"created_at"`

	Answers []ResponseAnswer `gorm:"foreignKey:ResponseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"answers,omitempty"`
}

// ResponseAnswer başvurudaki tek bir sorunun cevabıdır; başvuru ile
// birlikte yaratılır, birlikte silinir.
type ResponseAnswer struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ResponseID uint      `gorm:"not null;index" json:"response_id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Answer     string    `gorm:"type:text" json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}
