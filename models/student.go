package models

import (
	"strconv"
	"strings"
)

// Student başvuru yapan öğrencinin kaydıdır. Kimlik doğrulama bu çekirdeğin
// dışındadır; kayıt, form-yazarlık alt sisteminden salt okunur gelir.
type Student struct {
	BaseModel
	Email      string `gorm:"type:varchar(150);uniqueIndex;not null" json:"email"`
	Name       string `gorm:"type:varchar(150);not null" json:"name"`
	Department string `gorm:"type:varchar(30);index" json:"department"`
	Year       int    `gorm:"type:integer" json:"year"`
}

// FieldValue STUDENT kaynaklı kuralların başvurduğu alan adını karşılığına
// çevirir. Bilinmeyen alan adı için ikinci dönüş değeri false olur.
func (s *Student) FieldValue(field string) (string, bool) {
	switch strings.ToLower(field) {
	case "email":
		return s.Email, true
	case "name":
		return s.Name, true
	case "department":
		return s.Department, true
	case "year":
		return strconv.Itoa(s.Year), true
	}
	return "", false
}
