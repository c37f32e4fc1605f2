package app

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Spok95/stepik-test-bot/internal/config"
	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/format"
	"github.com/Spok95/stepik-test-bot/internal/metrics"
	"github.com/Spok95/stepik-test-bot/internal/models"
	"github.com/Spok95/stepik-test-bot/internal/validate"
	"go.uber.org/zap"
)

// apiServer — та же логика, что у бота, но для веб-форм: транспорт только
// переводит свой формат в вызовы стора.
type apiServer struct {
	db      *sql.DB
	cfg     *config.Config
	checker *validate.Checker
	log     *zap.SugaredLogger
}

func (a *apiServer) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", a.handleRegister)
	mux.HandleFunc("POST /api/tests", a.handleSubmitTest)
	mux.HandleFunc("GET /api/tests", a.handleStudentTests)
	mux.HandleFunc("GET /api/notifications", a.handleNotifications)
	mux.HandleFunc("POST /api/notifications/read", a.handleNotificationRead)
	mux.HandleFunc("GET /api/pending", a.requireTeacher(a.handlePending))
	mux.HandleFunc("POST /api/review", a.requireTeacher(a.handleReview))
	mux.HandleFunc("GET /api/stats", a.requireTeacher(a.handleStats))
	mux.HandleFunc("GET /api/students", a.requireTeacher(a.handleStudents))
}

// requireTeacher — простейшая защита преподавательских ручек тем же паролем,
// что и регистрация преподавателя в боте.
func (a *apiServer) requireTeacher(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Admin-Password") != a.cfg.AdminPassword {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "неверный пароль"})
			return
		}
		next(w, r)
	}
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

// handleRegister — веб-регистрация: у пользователя нет Telegram ID, поэтому
// подбираем свободный числовой ID (сгенерировать, проверить, повторить).
func (a *apiServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "некорректный JSON"})
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	if !validate.FullName(fullName) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Некорректное ФИО"})
		return
	}
	role := models.Role(req.Role)
	if role != models.Student && role != models.Teacher {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "роль должна быть student или teacher"})
		return
	}
	if role == models.Teacher && req.Password != a.cfg.AdminPassword {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "неверный пароль для регистрации преподавателя"})
		return
	}

	ctx := r.Context()
	parts := strings.Fields(fullName)
	username := strings.ToLower(strings.Join(parts, "_"))

	// при гонке за один и тот же ID вставка не пройдёт — пробуем снова
	for attempt := 0; attempt < 5; attempt++ {
		id, err := db.NewStudentID(ctx, a.db)
		if err != nil {
			a.log.Errorw("подбор ID", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка регистрации"})
			return
		}
		created, err := db.CreateUserIfAbsent(ctx, a.db, id, username, parts[1], parts[0], role)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка регистрации"})
			return
		}
		if !created {
			continue
		}
		if err := db.ApproveUser(ctx, a.db, id); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка регистрации"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"user_id": id, "role": string(role)})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "не удалось подобрать свободный ID"})
}

type submitTestRequest struct {
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
	StepikID string `json:"stepik_id"`
	TestURL  string `json:"test_url"`
	TestType string `json:"test_type"`
}

func (a *apiServer) handleSubmitTest(w http.ResponseWriter, r *http.Request) {
	var req submitTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "некорректный JSON"})
		return
	}

	ctx := r.Context()
	user, err := db.GetUser(ctx, a.db, req.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка сохранения"})
		return
	}
	if user == nil || !user.IsApproved || user.Role != models.Student {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "отправка доступна только зарегистрированным студентам"})
		return
	}

	ok, errs := a.checker.CheckSubmission(validate.Submission{
		FullName: strings.TrimSpace(req.FullName),
		StepikID: strings.TrimSpace(req.StepikID),
		TestURL:  strings.TrimSpace(req.TestURL),
		TestType: strings.TrimSpace(req.TestType),
	})
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	if err := db.CreateTest(ctx, a.db, req.UserID, strings.TrimSpace(req.FullName),
		strings.TrimSpace(req.StepikID), strings.TrimSpace(req.TestURL), strings.TrimSpace(req.TestType)); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка сохранения"})
		return
	}
	metrics.TestsSubmitted.Inc()
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

type testResponse struct {
	ID             int64   `json:"id"`
	StudentID      int64   `json:"student_id"`
	FullName       string  `json:"full_name"`
	StepikID       string  `json:"stepik_id"`
	TestURL        string  `json:"test_url"`
	TestType       string  `json:"test_type"`
	SubmittedAt    string  `json:"submitted_at"`
	IsReviewed     bool    `json:"is_reviewed"`
	Score          int     `json:"score"`
	TeacherComment *string `json:"teacher_comment,omitempty"`
	ReviewedAt     *string `json:"reviewed_at,omitempty"`
}

func toTestResponse(t models.Test) testResponse {
	resp := testResponse{
		ID:             t.ID,
		StudentID:      t.StudentID,
		FullName:       t.FullName,
		StepikID:       t.StepikID,
		TestURL:        t.TestURL,
		TestType:       t.TestType,
		SubmittedAt:    format.DateTime(t.SubmittedAt),
		IsReviewed:     t.IsReviewed,
		Score:          t.Score,
		TeacherComment: t.TeacherComment,
	}
	if t.ReviewedAt != nil {
		s := format.DateTime(*t.ReviewedAt)
		resp.ReviewedAt = &s
	}
	return resp
}

func (a *apiServer) handleStudentTests(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.ParseInt(r.URL.Query().Get("student_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "нужен числовой student_id"})
		return
	}
	tests, err := db.GetStudentTests(r.Context(), a.db, studentID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка запроса"})
		return
	}
	out := make([]testResponse, 0, len(tests))
	for _, t := range tests {
		out = append(out, toTestResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleNotifications — лента уведомлений для веб-кабинета студента. В отличие
// от бота просмотр тут ничего не помечает: прочтение подтверждается отдельным
// запросом по конкретному уведомлению.
func (a *apiServer) handleNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "нужен числовой user_id"})
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "1"

	notifs, err := db.GetUserNotifications(r.Context(), a.db, userID, unreadOnly)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка запроса"})
		return
	}
	type notifResponse struct {
		ID        int64  `json:"id"`
		Message   string `json:"message"`
		Type      string `json:"type"`
		IsRead    bool   `json:"is_read"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]notifResponse, 0, len(notifs))
	for _, n := range notifs {
		out = append(out, notifResponse{
			ID:        n.ID,
			Message:   n.Message,
			Type:      string(n.Type),
			IsRead:    n.IsRead,
			CreatedAt: format.DateTime(n.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handleNotificationRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "некорректный JSON"})
		return
	}
	if err := db.MarkNotificationRead(r.Context(), a.db, req.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка сохранения"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *apiServer) handlePending(w http.ResponseWriter, r *http.Request) {
	pending, err := db.GetPendingTests(r.Context(), a.db)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка запроса"})
		return
	}
	type pendingResponse struct {
		testResponse
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	out := make([]pendingResponse, 0, len(pending))
	for _, t := range pending {
		out = append(out, pendingResponse{
			testResponse: toTestResponse(t.Test),
			Username:     t.Username,
			FirstName:    t.FirstName,
			LastName:     t.LastName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type reviewRequest struct {
	TestID  int64  `json:"test_id"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (a *apiServer) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "некорректный JSON"})
		return
	}

	ctx := r.Context()
	test, err := db.GetTest(ctx, a.db, req.TestID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка запроса"})
		return
	}
	if test == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "тест не найден"})
		return
	}

	maxScore, _ := strconv.Atoi(test.TestType)
	if req.Score < 0 || req.Score > maxScore {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "оценка вне диапазона типа теста"})
		return
	}

	if err := db.ReviewTest(ctx, a.db, req.TestID, req.Score, req.Comment); err != nil {
		a.log.Errorw("сохранение проверки", "test_id", req.TestID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка сохранения"})
		return
	}
	metrics.TestsReviewed.Inc()
	_ = db.SendNotification(ctx, a.db, test.StudentID,
		format.ReviewFeedback(req.Score, maxScore, req.Comment), models.NotifySuccess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := db.GetStatistics(r.Context(), a.db)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка запроса"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_students": stats.TotalStudents,
		"total_tests":    stats.TotalTests,
		"reviewed_tests": stats.ReviewedTests,
		"pending_tests":  stats.PendingTests,
		"average_score":  stats.AverageScore,
	})
}

func (a *apiServer) handleStudents(w http.ResponseWriter, r *http.Request) {
	scores, err := db.GetStudentsScores(r.Context(), a.db)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ошибка запроса"})
		return
	}
	type studentResponse struct {
		UserID        int64  `json:"user_id"`
		FullName      string `json:"full_name"`
		TotalScore    int    `json:"total_score"`
		TotalTests    int    `json:"total_tests"`
		ReviewedTests int    `json:"reviewed_tests"`
	}
	out := make([]studentResponse, 0, len(scores))
	for _, s := range scores {
		out = append(out, studentResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
