package models

import "time"

type FeedbackType string

const (
	FeedbackBug        FeedbackType = "bug"
	FeedbackSuggestion FeedbackType = "suggestion"
	FeedbackCompliment FeedbackType = "compliment"
	FeedbackQuestion   FeedbackType = "question"
	FeedbackRating     FeedbackType = "rating"
)

type Feedback struct {
	ID          int64
	UserID      int64
	Type        FeedbackType
	Message     string
	Rating      *int
	IsProcessed bool
	CreatedAt   time.Time
}

type FeedbackStats struct {
	Total         int
	ByType        map[string]int
	AverageRating float64
	Unprocessed   int
}

type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifyWarning NotificationType = "warning"
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
)

type Notification struct {
	ID        int64
	UserID    int64
	Message   string
	Type      NotificationType
	IsRead    bool
	CreatedAt time.Time
}
