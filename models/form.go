package models

import (
	"time"
)

// FormStatus formun yaşam döngüsü durumunu tanımlar.
// Geçişler tek yönlüdür: DRAFT -> OPEN -> CLOSED. DRAFT ayrıca silinebilir,
// CLOSED son duraktır.
type FormStatus string

const (
	FormStatusDraft  FormStatus = "DRAFT"  // Hazırlanıyor, öğrencilere kapalı
	FormStatusOpen   FormStatus = "OPEN"   // Başvuruya açık
	FormStatusClosed FormStatus = "CLOSED" // Başvuru penceresi kapandı
)

// Form bir kayıt kampanyasının ana kaydıdır. Slotlarını, sorularını ve
// uygunluk kurallarını sahiplenir; form DRAFT durumundayken silinirse
// hepsi birlikte silinir.
type Form struct {
	BaseModel
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	TestDate    *time.Time `gorm:"type:date" json:"test_date,omitempty"`
	Status      FormStatus `gorm:"type:varchar(10);not null;default:'DRAFT';index" json:"status"`

	// Form seviyesi kapasite takibi. MaxResponses nil ise sınırsızdır;
	// CurrentResponses yalnızca korumalı (guarded) update ile değişir.
	MaxResponses     *int `gorm:"type:integer" json:"max_responses,omitempty"`
	CurrentResponses int  `gorm:"type:integer;not null;default:0" json:"current_responses"`

	// Zamanlanmış geçişler. AutoOpen/AutoClose bayrakları ilgili geçişin
	// daha önce uygulanıp uygulanmadığını kalıcı olarak tutar; sürücünün
	// exactly-once garantisi bu bayraklara dayanır, belleğe değil.
	ScheduledPublishAt *time.Time `gorm:"index:idx_forms_scheduling" json:"scheduled_publish_at,omitempty"`
	ScheduledCloseAt   *time.Time `gorm:"index:idx_forms_scheduling" json:"scheduled_close_at,omitempty"`
	AutoOpen           bool       `gorm:"not null;default:false" json:"auto_open"`
	AutoClose          bool       `gorm:"not null;default:false" json:"auto_close"`

	// GORM İlişkileri
	Slots            []Slot            `gorm:"foreignKey:FormID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"slots,omitempty"`
	Questions        []Question        `gorm:"foreignKey:FormID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"questions,omitempty"`
	EligibilityRules []EligibilityRule `gorm:"foreignKey:FormID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"eligibility_rules,omitempty"`
}

// CapacityTracked form seviyesi yanıt sayacının etkin olup olmadığını söyler.
func (f *Form) CapacityTracked() bool {
	return f.MaxResponses != nil
}

// CapacityExhausted sayaç takipteyse ve limit dolmuşsa true döner.
func (f *Form) CapacityExhausted() bool {
	return f.MaxResponses != nil && f.CurrentResponses >= *f.MaxResponses
}
