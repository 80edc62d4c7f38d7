package bookings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"mindspace-backend/internal/shared/auth"
	"mindspace-backend/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) (*gin.Engine, *fakeQueue) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	svc, _, q := newTestService(t)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity())
	api := r.Group("/api/v1")
	h := NewHandler(svc)
	h.RegisterRoutes(api)
	h.RegisterAdminRoutes(api.Group("/admin", middleware.RequireStaff()))
	return r, q
}

func send(r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlerCreateAndGet(t *testing.T) {
	r, q := newTestRouter(t)
	owner := map[string]string{middleware.VisitorHeader: "visitor-0001", "X-Request-Id": "req-77"}

	resp := send(r, http.MethodPost, "/api/v1/bookings", validRequest(), owner)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID           string `json:"id"`
		ServiceLabel string `json:"serviceLabel"`
		Status       string `json:"status"`
		Date         string `json:"date"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID != testBookingID || created.ServiceLabel != "Area Terapia" || created.Status != StatusPending || created.Date != "2026-03-03" {
		t.Fatalf("unexpected response %+v", created)
	}
	if len(q.sent) != 1 || q.sent[0].RequestID != "req-77" {
		t.Fatalf("expected follow-up carrying the request id, got %+v", q.sent)
	}

	if resp := send(r, http.MethodGet, "/api/v1/bookings/"+testBookingID, nil, owner); resp.Code != http.StatusOK {
		t.Fatalf("owner expected 200, got %d", resp.Code)
	}
	stranger := map[string]string{middleware.VisitorHeader: "visitor-0002"}
	if resp := send(r, http.MethodGet, "/api/v1/bookings/"+testBookingID, nil, stranger); resp.Code != http.StatusNotFound {
		t.Fatalf("other visitor expected 404, got %d", resp.Code)
	}
}

func TestHandlerCreateValidationDetails(t *testing.T) {
	r, _ := newTestRouter(t)

	req := validRequest()
	req.Phone = "abc"
	resp := send(r, http.MethodPost, "/api/v1/bookings", req, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []FieldError `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != "validation_error" {
		t.Fatalf("unexpected code %q", payload.Error.Code)
	}
	fields := payload.Error.Details.Fields
	if len(fields) != 1 || fields[0].Field != "phone" || fields[0].Message != "Inserisci un numero di telefono valido" {
		t.Fatalf("unexpected field errors %+v", fields)
	}
}

func TestHandlerAdminListRequiresStaff(t *testing.T) {
	r, _ := newTestRouter(t)
	if resp := send(r, http.MethodPost, "/api/v1/bookings", validRequest(), nil); resp.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d", resp.Code)
	}

	if resp := send(r, http.MethodGet, "/api/v1/admin/bookings", nil, nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous expected 401, got %d", resp.Code)
	}

	token, err := auth.SignJWT(auth.Claims{Sub: "staff-1", Role: auth.RoleStaff})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	staff := map[string]string{"Authorization": "Bearer " + token}

	resp := send(r, http.MethodGet, "/api/v1/admin/bookings?status=pending&limit=5", nil, staff)
	if resp.Code != http.StatusOK {
		t.Fatalf("staff expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var list struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Limit int `json:"limit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != testBookingID || list.Limit != 5 {
		t.Fatalf("unexpected listing %+v", list)
	}

	if resp := send(r, http.MethodGet, "/api/v1/admin/bookings?status=bogus", nil, staff); resp.Code != http.StatusBadRequest {
		t.Fatalf("unknown status expected 400, got %d", resp.Code)
	}
	if resp := send(r, http.MethodGet, "/api/v1/admin/bookings/"+testBookingID, nil, staff); resp.Code != http.StatusOK {
		t.Fatalf("staff get expected 200, got %d", resp.Code)
	}
}
