package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Spok95/stepik-test-bot/internal/models"
	"github.com/xuri/excelize/v2"
)

// ScoresWorkbook — отчёт «рейтинг студентов» в xlsx: одна строка на студента,
// в том же порядке, что отдал стор (по убыванию суммы баллов).
func ScoresWorkbook(scores []models.StudentScore) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Рейтинг"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []string{"ID", "ФИО", "Баллы", "Всего тестов", "Проверено"}
	for col, h := range header {
		cell := fmt.Sprintf("%s1", colName(col+1))
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	end := colName(len(header)) + "1"
	_ = f.SetCellStyle(sheet, "A1", end, bold)
	_ = f.AutoFilter(sheet, "A1:"+end, nil)

	for r, s := range scores {
		row := r + 2
		_ = f.SetCellInt(sheet, fmt.Sprintf("A%d", row), s.UserID)
		_ = f.SetCellStr(sheet, fmt.Sprintf("B%d", row), s.FullName)
		_ = f.SetCellInt(sheet, fmt.Sprintf("C%d", row), int64(s.TotalScore))
		_ = f.SetCellInt(sheet, fmt.Sprintf("D%d", row), int64(s.TotalTests))
		_ = f.SetCellInt(sheet, fmt.Sprintf("E%d", row), int64(s.ReviewedTests))
	}

	// эвристическая ширина: по заголовку и первым строкам
	for c := 1; c <= len(header); c++ {
		maxim := len([]rune(header[c-1]))
		for r := 0; r < minim(50, len(scores)); r++ {
			if c == 2 {
				if l := len([]rune(scores[r].FullName)); l > maxim {
					maxim = l
				}
			}
		}
		w := float64(maxim) * 1.1
		if w < 12 {
			w = 12
		}
		if w > 40 {
			w = 40
		}
		_ = f.SetColWidth(sheet, colName(c), colName(c), w)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &buf, nil
}

// ScoresReportFilename — человекочитаемое имя файла отчёта.
func ScoresReportFilename(now time.Time) string {
	return fmt.Sprintf("Рейтинг студентов %s.xlsx", now.Format("2006-01-02"))
}

// helpers
func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func minim(a, b int) int {
	if a < b {
		return a
	}
	return b
}
