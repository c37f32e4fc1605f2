package models

import "time"

type Role string

const (
	Teacher Role = "teacher"
	Student Role = "student"
)

type User struct {
	ID         int64
	Username   string
	FirstName  string
	LastName   string
	StepikID   *string
	Role       Role
	IsApproved bool
	CreatedAt  time.Time
}
