package validate

import "testing"

func TestFullName(t *testing.T) {
	valid := []string{
		"Иванов Иван",
		"Иванов Иван Иванович",
		"  Петров   Пётр  ",
	}
	for _, s := range valid {
		if !FullName(s) {
			t.Errorf("ожидали валидное ФИО: %q", s)
		}
	}

	invalid := []string{
		"Иванов",          // одно слово
		"",                //
		"Иванов И.",       // точка — не буква
		"Иванов Иван2",    // цифра
		"Ivanov-II Ivan3", //
	}
	for _, s := range invalid {
		if FullName(s) {
			t.Errorf("ожидали невалидное ФИО: %q", s)
		}
	}
}

func TestStepikID(t *testing.T) {
	if StepikID("12") {
		t.Error("ID короче 3 символов должен отклоняться")
	}
	if !StepikID("123") {
		t.Error("ID из 3 цифр должен проходить")
	}
	if !StepikID("123456") {
		t.Error("ID из 6 цифр должен проходить")
	}
	if StepikID("12a") {
		t.Error("ID с буквой должен отклоняться")
	}
	if StepikID("") {
		t.Error("пустой ID должен отклоняться")
	}
}

func TestTestURL(t *testing.T) {
	c := New("stepik.org")

	valid := []string{
		"https://stepik.org/lesson/123/step/1",
		"https://stepik.org/course/789012/step/2",
		"https://stepik.org/step/5",
	}
	for _, u := range valid {
		if !c.TestURL(u) {
			t.Errorf("ожидали валидную ссылку: %q", u)
		}
	}

	invalid := []string{
		"https://example.com/lesson/123/step/1", // чужой хост
		"http://stepik.org/lesson/123",          // не https
		"https://stepik.org/lesson/abc",         // нет цифр
		"https://stepik.org/quiz/123",           // не lesson|course|step
		"",
	}
	for _, u := range invalid {
		if c.TestURL(u) {
			t.Errorf("ожидали невалидную ссылку: %q", u)
		}
	}
}

func TestTestType(t *testing.T) {
	if !TestType("3") || !TestType("5") {
		t.Error("типы 3 и 5 должны проходить")
	}
	for _, s := range []string{"4", "", "35", "three"} {
		if TestType(s) {
			t.Errorf("тип %q должен отклоняться", s)
		}
	}
}

func TestCheckSubmission_CollectsAllErrors(t *testing.T) {
	c := New("stepik.org")

	ok, errs := c.CheckSubmission(Submission{
		FullName: "Иванов",
		StepikID: "12",
		TestURL:  "https://example.com/lesson/1",
		TestType: "4",
	})
	if ok {
		t.Fatal("ожидали невалидную форму")
	}
	// все четыре замечания разом, без короткого замыкания
	if len(errs) != 4 {
		t.Fatalf("ожидали 4 замечания, получили %d: %v", len(errs), errs)
	}

	ok, errs = c.CheckSubmission(Submission{
		FullName: "Иванов Иван",
		StepikID: "123456",
		TestURL:  "https://stepik.org/lesson/123456/step/1",
		TestType: "3",
	})
	if !ok || len(errs) != 0 {
		t.Fatalf("ожидали валидную форму, получили %v", errs)
	}
}
