package services

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"kayit.link/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB her test için izole, dosya tabanlı bir SQLite veritabanı açar.
// TranslateError açık tutulur ki unique index ihlali üretimdeki gibi
// gorm.ErrDuplicatedKey olarak görünsün. _txlock=immediate olmadan ertelemeli
// başlayan yazma transaction'ları busy_timeout'u beklemeden SQLITE_BUSY alır;
// immediate kilit eşzamanlı yazarları busy handler üzerinde sıraya sokar.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("%s?_txlock=immediate&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)",
		filepath.Join(t.TempDir(), "kayit_test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}

	err = db.AutoMigrate(
		&models.Student{},
		&models.Form{},
		&models.Slot{},
		&models.Question{},
		&models.EligibilityRule{},
		&models.Response{},
		&models.ResponseAnswer{},
	)
	if err != nil {
		t.Fatalf("test migrasyonu başarısız: %v", err)
	}
	return db
}

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func createTestStudent(t *testing.T, db *gorm.DB, email, department string, year int) *models.Student {
	t.Helper()
	student := &models.Student{Email: email, Name: "Test Öğrenci", Department: department, Year: year}
	if err := db.Create(student).Error; err != nil {
		t.Fatalf("test öğrencisi oluşturulamadı: %v", err)
	}
	return student
}

func createTestForm(t *testing.T, db *gorm.DB, status models.FormStatus, maxResponses *int) *models.Form {
	t.Helper()
	form := &models.Form{
		Title:        "Test Formu",
		Status:       status,
		MaxResponses: maxResponses,
	}
	if err := db.Create(form).Error; err != nil {
		t.Fatalf("test formu oluşturulamadı: %v", err)
	}
	return form
}

func createTestSlot(t *testing.T, db *gorm.DB, formID uint, capacity int) *models.Slot {
	t.Helper()
	slot := &models.Slot{
		FormID:      formID,
		SlotDate:    time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		StartTime:   "09:00",
		EndTime:     "10:00",
		MaxCapacity: capacity,
	}
	if err := db.Create(slot).Error; err != nil {
		t.Fatalf("test slotu oluşturulamadı: %v", err)
	}
	return slot
}

func createTestQuestion(t *testing.T, db *gorm.DB, formID uint, text string) *models.Question {
	t.Helper()
	question := &models.Question{FormID: formID, QuestionText: text, InputType: "text", IsRequired: true}
	if err := db.Create(question).Error; err != nil {
		t.Fatalf("test sorusu oluşturulamadı: %v", err)
	}
	return question
}

func reloadForm(t *testing.T, db *gorm.DB, id uint) *models.Form {
	t.Helper()
	var form models.Form
	if err := db.First(&form, id).Error; err != nil {
		t.Fatalf("form yeniden okunamadı: %v", err)
	}
	return &form
}

func reloadSlot(t *testing.T, db *gorm.DB, id uint) *models.Slot {
	t.Helper()
	var slot models.Slot
	if err := db.First(&slot, id).Error; err != nil {
		t.Fatalf("slot yeniden okunamadı: %v", err)
	}
	return &slot
}

func countResponses(t *testing.T, db *gorm.DB, formID uint) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Response{}).Where("form_id = ?", formID).Count(&count).Error; err != nil {
		t.Fatalf("başvurular sayılamadı: %v", err)
	}
	return count
}

// withFixedNow testin süresi boyunca servis saatini sabitler.
func withFixedNow(t *testing.T, now time.Time) {
	t.Helper()
	original := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = original })
}
