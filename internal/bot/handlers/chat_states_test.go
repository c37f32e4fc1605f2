package handlers

import (
	"sync"
	"testing"

	"github.com/Spok95/stepik-test-bot/internal/models"
)

// Разные чаты обрабатываются параллельно: лимитер сериализует апдейты только
// внутри одного чата. Доступ к состояниям сценариев обязан переживать -race.
func TestChatStates_ParallelChats(t *testing.T) {
	var wg sync.WaitGroup
	for chat := int64(1); chat <= 8; chat++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				regStates.Store(id, &RegState{Step: regStepStudentName, Role: models.Student})
				_ = GetRegState(id)
				_ = GetRegState(id + 1) // чтение чужого чата во время записи своего
				ClearRegState(id)

				submitStates.Store(id, &SubmitState{Step: submitStepName})
				_ = GetSubmitState(id + 1)
				submitStates.Delete(id)

				reviewStates.Store(id, &ReviewState{Step: reviewStepScore, MaxScore: 5})
				_ = GetReviewState(id + 1)
				reviewStates.Delete(id)

				feedbackStates.Store(id, &FeedbackState{Step: feedbackStepMessage})
				_ = GetFeedbackState(id + 1)
				feedbackStates.Delete(id)
			}
		}(chat)
	}
	wg.Wait()
}

// /start начинает с чистого листа: ни один незавершённый сценарий не должен
// перехватить следующее текстовое сообщение.
func TestResetChatState(t *testing.T) {
	const chat = int64(42)
	regStates.Store(chat, &RegState{Step: regStepTeacherPassword, Role: models.Teacher})
	submitStates.Store(chat, &SubmitState{Step: submitStepURL})
	reviewStates.Store(chat, &ReviewState{Step: reviewStepComment, TestID: 7})
	feedbackStates.Store(chat, &FeedbackState{Step: feedbackStepMessage})

	ResetChatState(chat)

	if GetRegState(chat) != nil || GetSubmitState(chat) != nil ||
		GetReviewState(chat) != nil || GetFeedbackState(chat) != nil {
		t.Fatal("после сброса не должно остаться ни одного активного сценария")
	}
}
