package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"kayit.link/models"
	"kayit.link/pkg/apperrors"
)

func TestSubmitHappyPath(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, intPtr(10))
	slot := createTestSlot(t, db, form.ID, 3)
	question := createTestQuestion(t, db, form.ID, "Not ortalamanız nedir?")
	student := createTestStudent(t, db, "ali@example.edu", "CENG", 3)

	svc := NewSubmissionServiceWithDB(db, nil)
	answers := []AnswerInput{{QuestionID: question.ID, Value: "3.2"}}
	if err := svc.Submit(ctx, form.ID, student.ID, slot.ID, answers); err != nil {
		t.Fatalf("başvuru başarılı olmalıydı: %v", err)
	}

	if got := reloadSlot(t, db, slot.ID).CurrentBookings; got != 1 {
		t.Errorf("slot sayacı 1 olmalı, %d", got)
	}
	if got := reloadForm(t, db, form.ID).CurrentResponses; got != 1 {
		t.Errorf("form sayacı 1 olmalı, %d", got)
	}

	var response models.Response
	if err := db.Preload("Answers").Where("form_id = ? AND student_id = ?", form.ID, student.ID).First(&response).Error; err != nil {
		t.Fatalf("başvuru kaydı bulunamadı: %v", err)
	}
	if len(response.Answers) != 1 || response.Answers[0].Answer != "3.2" {
		t.Errorf("cevaplar eksik veya hatalı: %+v", response.Answers)
	}
}

func TestSubmitDuplicateLeavesCountersUntouched(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, intPtr(10))
	slot := createTestSlot(t, db, form.ID, 3)
	student := createTestStudent(t, db, "ali@example.edu", "CENG", 3)

	svc := NewSubmissionServiceWithDB(db, nil)
	if err := svc.Submit(ctx, form.ID, student.ID, slot.ID, nil); err != nil {
		t.Fatalf("ilk başvuru başarılı olmalıydı: %v", err)
	}

	err := svc.Submit(ctx, form.ID, student.ID, slot.ID, nil)
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("ikinci başvuru ConflictError olmalı, geldi: %v", err)
	}

	if got := reloadSlot(t, db, slot.ID).CurrentBookings; got != 1 {
		t.Errorf("slot sayacı 1 kalmalı, %d", got)
	}
	if got := reloadForm(t, db, form.ID).CurrentResponses; got != 1 {
		t.Errorf("form sayacı 1 kalmalı, %d", got)
	}
	if got := countResponses(t, db, form.ID); got != 1 {
		t.Errorf("tek başvuru kaydı kalmalı, %d", got)
	}
}

func TestSubmitClosedForm(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusClosed, nil)
	slot := createTestSlot(t, db, form.ID, 3)
	student := createTestStudent(t, db, "ali@example.edu", "CENG", 3)

	svc := NewSubmissionServiceWithDB(db, nil)
	err := svc.Submit(ctx, form.ID, student.ID, slot.ID, nil)
	if !apperrors.IsKind(err, apperrors.KindStateConflict) {
		t.Fatalf("kapalı forma başvuru StateConflictError olmalı, geldi: %v", err)
	}
}

func TestSubmitSlotFull(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, nil)
	slot := createTestSlot(t, db, form.ID, 1)
	first := createTestStudent(t, db, "ali@example.edu", "CENG", 3)
	second := createTestStudent(t, db, "veli@example.edu", "CENG", 3)

	svc := NewSubmissionServiceWithDB(db, nil)
	if err := svc.Submit(ctx, form.ID, first.ID, slot.ID, nil); err != nil {
		t.Fatalf("ilk başvuru başarılı olmalıydı: %v", err)
	}

	err := svc.Submit(ctx, form.ID, second.ID, slot.ID, nil)
	if !apperrors.IsKind(err, apperrors.KindCapacityExceeded) {
		t.Fatalf("dolu slota başvuru CapacityExceededError olmalı, geldi: %v", err)
	}
	if got := countResponses(t, db, form.ID); got != 1 {
		t.Errorf("tek başvuru kaydı kalmalı, %d", got)
	}
}

func TestSubmitSlotFromAnotherForm(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, nil)
	other := createTestForm(t, db, models.FormStatusOpen, nil)
	foreignSlot := createTestSlot(t, db, other.ID, 3)
	student := createTestStudent(t, db, "ali@example.edu", "CENG", 3)

	svc := NewSubmissionServiceWithDB(db, nil)
	err := svc.Submit(ctx, form.ID, student.ID, foreignSlot.ID, nil)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("başka formun slotu ValidationError olmalı, geldi: %v", err)
	}
}

func TestSubmitEligibilityDenied(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, nil)
	slot := createTestSlot(t, db, form.ID, 3)
	student := createTestStudent(t, db, "ali@example.edu", "CENG", 2)

	rule := &models.EligibilityRule{
		FormID: form.ID, Source: models.RuleSourceStudent,
		StudentField: "year", Operator: models.RuleOpGTE, Value: "3",
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("kural oluşturulamadı: %v", err)
	}

	svc := NewSubmissionServiceWithDB(db, nil)
	err := svc.Submit(ctx, form.ID, student.ID, slot.ID, nil)
	if !apperrors.IsKind(err, apperrors.KindEligibilityDenied) {
		t.Fatalf("uygunsuz öğrenci EligibilityDeniedError almalı, geldi: %v", err)
	}

	// Reddedilen başvuru hiçbir iz bırakmamalı.
	if got := countResponses(t, db, form.ID); got != 0 {
		t.Errorf("başvuru kaydı oluşmamalı, %d", got)
	}
	if got := reloadSlot(t, db, slot.ID).CurrentBookings; got != 0 {
		t.Errorf("slot sayacı 0 kalmalı, %d", got)
	}
}

func TestSubmitFormCapacityExhaustionClosesForm(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, intPtr(1))
	slot := createTestSlot(t, db, form.ID, 10)
	first := createTestStudent(t, db, "ali@example.edu", "CENG", 3)
	second := createTestStudent(t, db, "veli@example.edu", "CENG", 3)

	svc := NewSubmissionServiceWithDB(db, nil)
	if err := svc.Submit(ctx, form.ID, first.ID, slot.ID, nil); err != nil {
		t.Fatalf("ilk başvuru başarılı olmalıydı: %v", err)
	}

	err := svc.Submit(ctx, form.ID, second.ID, slot.ID, nil)
	if !apperrors.IsKind(err, apperrors.KindStateConflict) {
		t.Fatalf("limit dolunca StateConflictError gelmeli, geldi: %v", err)
	}

	// Başvuru geri alınır ama formun kapanışı kalıcıdır: kapanış ana
	// transaction'ın dışında uygulanır.
	reloaded := reloadForm(t, db, form.ID)
	if reloaded.Status != models.FormStatusClosed {
		t.Errorf("form CLOSED olmalı, %s", reloaded.Status)
	}
	if got := countResponses(t, db, form.ID); got != 1 {
		t.Errorf("yalnızca ilk başvuru kalmalı, %d", got)
	}
	if got := reloaded.CurrentResponses; got != 1 {
		t.Errorf("form sayacı 1 kalmalı, %d", got)
	}
}

func TestWithdrawThenResubmit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, intPtr(5))
	slot := createTestSlot(t, db, form.ID, 2)
	student := createTestStudent(t, db, "ali@example.edu", "CENG", 3)

	svc := NewSubmissionServiceWithDB(db, nil)
	if err := svc.Submit(ctx, form.ID, student.ID, slot.ID, nil); err != nil {
		t.Fatalf("başvuru başarılı olmalıydı: %v", err)
	}
	if err := svc.Withdraw(ctx, form.ID, student.ID); err != nil {
		t.Fatalf("geri çekme başarılı olmalıydı: %v", err)
	}

	if got := reloadSlot(t, db, slot.ID).CurrentBookings; got != 0 {
		t.Errorf("geri çekme slotu serbest bırakmalı, sayaç %d", got)
	}
	if got := reloadForm(t, db, form.ID).CurrentResponses; got != 0 {
		t.Errorf("geri çekme form sayacını azaltmalı, sayaç %d", got)
	}
	if got := countResponses(t, db, form.ID); got != 0 {
		t.Errorf("başvuru kaydı silinmeli, %d", got)
	}

	// Aynı öğrenci form açıkken yeniden başvurabilir; unique index
	// silinmiş satıra takılmamalı.
	if err := svc.Submit(ctx, form.ID, student.ID, slot.ID, nil); err != nil {
		t.Fatalf("yeniden başvuru başarılı olmalıydı: %v", err)
	}
	if got := reloadSlot(t, db, slot.ID).CurrentBookings; got != 1 {
		t.Errorf("yeniden başvuru sonrası slot sayacı 1 olmalı, %d", got)
	}
}

func TestWithdrawWithoutSubmission(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, nil)
	student := createTestStudent(t, db, "ali@example.edu", "CENG", 3)

	svc := NewSubmissionServiceWithDB(db, nil)
	err := svc.Withdraw(ctx, form.ID, student.ID)
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("başvuru yokken geri çekme NotFoundError olmalı, geldi: %v", err)
	}
}

func TestWithdrawFromClosedForm(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, nil)
	slot := createTestSlot(t, db, form.ID, 2)
	student := createTestStudent(t, db, "ali@example.edu", "CENG", 3)

	svc := NewSubmissionServiceWithDB(db, nil)
	if err := svc.Submit(ctx, form.ID, student.ID, slot.ID, nil); err != nil {
		t.Fatalf("başvuru başarılı olmalıydı: %v", err)
	}

	if err := db.Model(&models.Form{}).Where("id = ?", form.ID).
		Update("status", models.FormStatusClosed).Error; err != nil {
		t.Fatalf("form kapatılamadı: %v", err)
	}

	err := svc.Withdraw(ctx, form.ID, student.ID)
	if !apperrors.IsKind(err, apperrors.KindStateConflict) {
		t.Fatalf("kapalı formdan geri çekme StateConflictError olmalı, geldi: %v", err)
	}
	if got := countResponses(t, db, form.ID); got != 1 {
		t.Errorf("başvuru yerinde kalmalı, %d", got)
	}
}

func TestConcurrentSubmitsRespectSlotCapacity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	const capacity = 3
	const attempts = 8

	form := createTestForm(t, db, models.FormStatusOpen, nil)
	slot := createTestSlot(t, db, form.ID, capacity)

	students := make([]*models.Student, attempts)
	for i := range students {
		students[i] = createTestStudent(t, db,
			fmt.Sprintf("ogrenci%d@example.edu", i), "CENG", 3)
	}

	svc := NewSubmissionServiceWithDB(db, nil)

	var successCount atomic.Int32
	errCh := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := svc.Submit(ctx, form.ID, students[idx].ID, slot.ID, nil)
			if err == nil {
				successCount.Add(1)
				return
			}
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)

	if got := int(successCount.Load()); got != capacity {
		t.Errorf("tam olarak %d başvuru kabul edilmeli, %d edildi", capacity, got)
	}
	// Kaybedenler taksonomi hatası görmeli; sürücüden sızan ham hata
	// (ör. SQLITE_BUSY) bir serileştirme kusurudur.
	for err := range errCh {
		if !apperrors.IsKind(err, apperrors.KindCapacityExceeded) {
			t.Errorf("kaybeden başvuru CapacityExceededError almalı, geldi: %v", err)
		}
	}
	if got := reloadSlot(t, db, slot.ID).CurrentBookings; got != capacity {
		t.Errorf("slot sayacı %d olmalı, %d", capacity, got)
	}
	if got := countResponses(t, db, form.ID); got != capacity {
		t.Errorf("başvuru kaydı sayısı %d olmalı, %d", capacity, got)
	}
}
