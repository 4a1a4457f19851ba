package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"kayit.link/models"
	"kayit.link/pkg/apperrors"
	"kayit.link/repositories"
)

func TestListFormResponsesFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, nil)
	slotA := createTestSlot(t, db, form.ID, 5)
	slotB := createTestSlot(t, db, form.ID, 5)

	ceng := createTestStudent(t, db, "ali@example.edu", "CENG", 3)
	eee := createTestStudent(t, db, "veli@example.edu", "EEE", 2)

	submission := NewSubmissionServiceWithDB(db, nil)
	if err := submission.Submit(ctx, form.ID, ceng.ID, slotA.ID, nil); err != nil {
		t.Fatalf("başvuru başarılı olmalıydı: %v", err)
	}
	if err := submission.Submit(ctx, form.ID, eee.ID, slotB.ID, nil); err != nil {
		t.Fatalf("başvuru başarılı olmalıydı: %v", err)
	}

	svc := NewResponseServiceWithDB(db)

	all, err := svc.ListFormResponses(ctx, form.ID, repositories.ResponseFilters{})
	if err != nil {
		t.Fatalf("liste alınmalıydı: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("2 başvuru beklenir, %d", len(all))
	}

	bySlot, err := svc.ListFormResponses(ctx, form.ID, repositories.ResponseFilters{SlotID: slotA.ID})
	if err != nil {
		t.Fatalf("slot filtresi çalışmalı: %v", err)
	}
	if len(bySlot) != 1 || bySlot[0].StudentID != ceng.ID {
		t.Errorf("slot filtresi yalnızca ilk başvuruyu döndürmeli: %+v", bySlot)
	}

	byDept, err := svc.ListFormResponses(ctx, form.ID, repositories.ResponseFilters{Department: "EEE"})
	if err != nil {
		t.Fatalf("bölüm filtresi çalışmalı: %v", err)
	}
	if len(byDept) != 1 || byDept[0].StudentID != eee.ID {
		t.Errorf("bölüm filtresi yalnızca EEE öğrencisini döndürmeli: %+v", byDept)
	}

	byYear, err := svc.ListFormResponses(ctx, form.ID, repositories.ResponseFilters{Year: 3})
	if err != nil {
		t.Fatalf("yıl filtresi çalışmalı: %v", err)
	}
	if len(byYear) != 1 || byYear[0].StudentID != ceng.ID {
		t.Errorf("yıl filtresi yalnızca 3. sınıfı döndürmeli: %+v", byYear)
	}
}

func TestListFormResponsesMissingForm(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	svc := NewResponseServiceWithDB(db)
	_, err := svc.ListFormResponses(ctx, 9999, repositories.ResponseFilters{})
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("olmayan form NotFoundError olmalı, geldi: %v", err)
	}
}

func TestExportFormResponsesCSV(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, nil)
	slot := createTestSlot(t, db, form.ID, 5)
	question := createTestQuestion(t, db, form.ID, "Not ortalamanız nedir?")
	student := createTestStudent(t, db, "ali@example.edu", "CENG", 3)

	submission := NewSubmissionServiceWithDB(db, nil)
	answers := []AnswerInput{{QuestionID: question.ID, Value: "3.4"}}
	if err := submission.Submit(ctx, form.ID, student.ID, slot.ID, answers); err != nil {
		t.Fatalf("başvuru başarılı olmalıydı: %v", err)
	}

	svc := NewResponseServiceWithDB(db)
	var buf bytes.Buffer
	if err := svc.ExportFormResponsesCSV(ctx, form.ID, &buf); err != nil {
		t.Fatalf("dışa aktarma başarılı olmalıydı: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV çözümlenemedi: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("başlık + 1 satır beklenir, %d satır geldi", len(records))
	}

	header := records[0]
	if header[0] != "email" || header[len(header)-1] != question.QuestionText {
		t.Errorf("başlık sütunları hatalı: %v", header)
	}

	row := records[1]
	if row[0] != student.Email {
		t.Errorf("e-posta sütunu hatalı: %q", row[0])
	}
	if row[len(row)-1] != "3.4" {
		t.Errorf("cevap sütunu hatalı: %q", row[len(row)-1])
	}
}

func TestExportEmptyFormProducesHeaderOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	form := createTestForm(t, db, models.FormStatusOpen, nil)
	createTestQuestion(t, db, form.ID, "Soru?")

	svc := NewResponseServiceWithDB(db)
	var buf bytes.Buffer
	if err := svc.ExportFormResponsesCSV(ctx, form.ID, &buf); err != nil {
		t.Fatalf("boş form da dışa aktarılabilmeli: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV çözümlenemedi: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("yalnızca başlık beklenir, %d satır geldi", len(records))
	}
}
