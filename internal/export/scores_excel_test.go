package export

import (
	"testing"
	"time"

	"github.com/Spok95/stepik-test-bot/internal/models"
	"github.com/xuri/excelize/v2"
)

func TestScoresWorkbook(t *testing.T) {
	buf, err := ScoresWorkbook([]models.StudentScore{
		{UserID: 1001, FullName: "Иванов Иван", TotalScore: 9, TotalTests: 2, ReviewedTests: 2},
		{UserID: 1002, FullName: "Петров Пётр", TotalScore: 0, TotalTests: 1, ReviewedTests: 0},
	})
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Рейтинг")
	if err != nil {
		t.Fatal(err)
	}
	// заголовок + две строки
	if len(rows) != 3 {
		t.Fatalf("ожидались 3 строки, а их %d", len(rows))
	}
	if rows[0][1] != "ФИО" {
		t.Fatalf("неверный заголовок: %v", rows[0])
	}
	if rows[1][1] != "Иванов Иван" || rows[1][2] != "9" {
		t.Fatalf("неверная первая строка: %v", rows[1])
	}
	if rows[2][0] != "1002" {
		t.Fatalf("неверная вторая строка: %v", rows[2])
	}
}

func TestScoresWorkbook_Empty(t *testing.T) {
	buf, err := ScoresWorkbook(nil)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Рейтинг")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("пустой отчёт содержит только заголовок: %d строк", len(rows))
	}
}

func TestScoresReportFilename(t *testing.T) {
	now := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	got := ScoresReportFilename(now)
	want := "Рейтинг студентов 2025-03-07.xlsx"
	if got != want {
		t.Fatalf("имя файла: %q, ожидалось %q", got, want)
	}
}
