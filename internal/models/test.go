package models

import "time"

// TestType — «стоимость» теста в баллах. В Степике у нас два типа работ.
const (
	TestType3 = "3"
	TestType5 = "5"
)

type Test struct {
	ID             int64
	StudentID      int64
	FullName       string
	StepikID       string
	TestURL        string
	TestType       string
	SubmittedAt    time.Time
	IsReviewed     bool
	Score          int
	TeacherComment *string
	ReviewedAt     *time.Time
}

// TestWithStudent — тест, дополненный данными отправителя (для списка на проверку).
type TestWithStudent struct {
	Test
	Username  string
	FirstName string
	LastName  string
}

type Statistics struct {
	TotalStudents int
	TotalTests    int
	ReviewedTests int
	PendingTests  int
	AverageScore  float64
}

type StudentScore struct {
	UserID        int64
	FullName      string
	TotalScore    int
	TotalTests    int
	ReviewedTests int
}
