package models

import (
	"time"
)

// Slot bir forma ait, kapasitesi sınırlı zaman penceresidir.
// 0 <= CurrentBookings <= MaxCapacity her an korunur; sayaç yalnızca
// korumalı update ile değişir, ayrı oku-sonra-yaz adımlarıyla asla.
type Slot struct {
	BaseModel
	FormID      uint      `gorm:"not null;index" json:"form_id"`
	SlotDate    time.Time `gorm:"type:date;not null" json:"slot_date"`
	StartTime   string    `gorm:"type:varchar(8);not null" json:"start_time"`
	EndTime     string    `gorm:"type:varchar(8);not null" json:"end_time"`
	MaxCapacity int       `gorm:"type:integer;not null" json:"max_capacity"`

	CurrentBookings int `gorm:"type:integer;not null;default:0" json:"current_bookings"`
}

// Remaining kalan kontenjanı döndürür (görüntüleme amaçlı, yetkili değil).
func (s *Slot) Remaining() int {
	return s.MaxCapacity - s.CurrentBookings
}
