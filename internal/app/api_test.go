//go:build testutil
// +build testutil

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/Spok95/stepik-test-bot/internal/config"
	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/models"
	"github.com/Spok95/stepik-test-bot/internal/testutil/testdb"
	"github.com/Spok95/stepik-test-bot/internal/validate"
)

func newTestAPI(t *testing.T) (*httptest.Server, *testdb.DBHandle, *config.Config) {
	t.Helper()
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{AdminPassword: "secret", StepikHost: "stepik.org"}
	api := &apiServer{
		db:      h.DB,
		cfg:     cfg,
		checker: validate.New(cfg.StepikHost),
		log:     zap.NewNop().Sugar(),
	}
	mux := http.NewServeMux()
	api.register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		h.Close()
	})
	return srv, h, cfg
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	raw, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestAPI_RegisterAndSubmit(t *testing.T) {
	srv, h, _ := newTestAPI(t)
	ctx := context.Background()

	resp, body := postJSON(t, srv.URL+"/api/register",
		map[string]string{"full_name": "Иванов Иван", "role": "student"}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("регистрация студента: статус %d, тело %v", resp.StatusCode, body)
	}
	userID := int64(body["user_id"].(float64))
	if userID < 100000 || userID > 999999 {
		t.Fatalf("ID вне диапазона: %d", userID)
	}

	u, err := db.GetUser(ctx, h.DB, userID)
	if err != nil {
		t.Fatal(err)
	}
	if u == nil || !u.IsApproved || u.Role != models.Student {
		t.Fatalf("веб-регистрация должна сразу одобрять: %+v", u)
	}

	// невалидная отправка собирает все ошибки сразу
	resp, body = postJSON(t, srv.URL+"/api/tests", map[string]any{
		"user_id":   userID,
		"full_name": "Иван",
		"stepik_id": "ab",
		"test_url":  "https://example.com/lesson/1",
		"test_type": "4",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("невалидная отправка: статус %d", resp.StatusCode)
	}
	if errs, ok := body["errors"].([]any); !ok || len(errs) != 4 {
		t.Fatalf("должны вернуться все четыре ошибки: %v", body)
	}

	resp, _ = postJSON(t, srv.URL+"/api/tests", map[string]any{
		"user_id":   userID,
		"full_name": "Иванов Иван",
		"stepik_id": "12345",
		"test_url":  "https://stepik.org/lesson/98765/step/1",
		"test_type": "5",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("валидная отправка: статус %d", resp.StatusCode)
	}

	tests, err := db.GetStudentTests(ctx, h.DB, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tests) != 1 || tests[0].TestType != models.TestType5 {
		t.Fatalf("тест не сохранился: %+v", tests)
	}
}

func TestAPI_TeacherEndpointsRequirePassword(t *testing.T) {
	srv, _, _ := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/api/pending")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("без пароля должен быть отказ: %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/stats", nil)
	req.Header.Set("X-Admin-Password", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("с паролем должен быть доступ: %d", resp.StatusCode)
	}
	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats["total_students"].(float64) != 0 {
		t.Fatalf("пустая база должна давать нулевую статистику: %v", stats)
	}
}

func TestAPI_ReviewFlow(t *testing.T) {
	srv, h, cfg := newTestAPI(t)
	ctx := context.Background()

	if err := db.SaveUser(ctx, h.DB, 6001, "student", "Иван", "Иванов", models.Student); err != nil {
		t.Fatal(err)
	}
	if err := db.ApproveUser(ctx, h.DB, 6001); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateTest(ctx, h.DB, 6001, "Иванов Иван", "12345",
		"https://stepik.org/lesson/1/step/1", models.TestType3); err != nil {
		t.Fatal(err)
	}
	pending, err := db.GetPendingTests(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}

	auth := map[string]string{"X-Admin-Password": cfg.AdminPassword}

	// оценка выше максимума для типа теста
	resp, _ := postJSON(t, srv.URL+"/api/review",
		map[string]any{"test_id": pending[0].ID, "score": 4, "comment": ""}, auth)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("оценка 4 для типа 3 должна отклоняться: %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, srv.URL+"/api/review",
		map[string]any{"test_id": pending[0].ID, "score": 3, "comment": "Молодец"}, auth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("проверка: статус %d", resp.StatusCode)
	}

	got, err := db.GetTest(ctx, h.DB, pending[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsReviewed || got.Score != 3 {
		t.Fatalf("проверка не записалась: %+v", got)
	}

	// студент получает уведомление о результате
	notifs, err := db.GetUserNotifications(ctx, h.DB, 6001, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(notifs) != 1 || notifs[0].Type != models.NotifySuccess {
		t.Fatalf("ожидалось одно success-уведомление: %+v", notifs)
	}

	// и видит его через веб-ленту; прочтение подтверждается отдельным запросом
	r2, err := http.Get(srv.URL + "/api/notifications?user_id=6001&unread=1")
	if err != nil {
		t.Fatal(err)
	}
	var feed []map[string]any
	if err := json.NewDecoder(r2.Body).Decode(&feed); err != nil {
		t.Fatal(err)
	}
	r2.Body.Close()
	if len(feed) != 1 {
		t.Fatalf("в веб-ленте должно быть одно уведомление: %v", feed)
	}

	resp, _ = postJSON(t, srv.URL+"/api/notifications/read",
		map[string]any{"id": notifs[0].ID}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("отметка прочтения: статус %d", resp.StatusCode)
	}
	after, err := db.GetUserNotifications(ctx, h.DB, 6001, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 0 {
		t.Fatalf("после отметки непрочитанных быть не должно: %+v", after)
	}
}
