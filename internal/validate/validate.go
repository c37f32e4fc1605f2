// Package validate — чистые проверки формы отправки теста. Никакого I/O:
// стор принимает только то, что прошло CheckSubmission.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/Spok95/stepik-test-bot/internal/models"
)

// Submission — данные формы до записи в БД.
type Submission struct {
	FullName string
	StepikID string
	TestURL  string
	TestType string
}

// Checker держит скомпилированный шаблон ссылок для заданного хоста.
type Checker struct {
	urlRe *regexp.Regexp
}

// New — хост приходит из конфигурации (STEPIK_HOST), а не зашивается в код.
// Форма ссылки фиксированная: /(lesson|course|step)/<цифры>.
func New(host string) *Checker {
	re := regexp.MustCompile(`^https://` + regexp.QuoteMeta(host) + `/(lesson|course|step)/\d+`)
	return &Checker{urlRe: re}
}

// FullName — минимум два слова, каждое только из букв (имена кириллицей).
func FullName(fullName string) bool {
	parts := strings.Fields(strings.TrimSpace(fullName))
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}

// StepikID — только цифры, длина не меньше 3.
func StepikID(id string) bool {
	if len(id) < 3 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TestURL — ссылка на урок/курс/шаг.
func (c *Checker) TestURL(url string) bool {
	return c.urlRe.MatchString(url)
}

// TestType — «3» или «5».
func TestType(t string) bool {
	return t == models.TestType3 || t == models.TestType5
}

// CheckSubmission прогоняет все четыре проверки и собирает ВСЕ замечания,
// чтобы показать пользователю полный список за один раз.
func (c *Checker) CheckSubmission(s Submission) (bool, []string) {
	var errs []string
	if !FullName(s.FullName) {
		errs = append(errs, "Некорректное ФИО")
	}
	if !StepikID(s.StepikID) {
		errs = append(errs, "Некорректный ID Степика")
	}
	if !c.TestURL(s.TestURL) {
		errs = append(errs, "Некорректная ссылка на тест")
	}
	if !TestType(s.TestType) {
		errs = append(errs, fmt.Sprintf("Тип теста должен быть %s или %s", models.TestType3, models.TestType5))
	}
	return len(errs) == 0, errs
}
