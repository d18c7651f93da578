package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/arunvm123/ticketbooking/config"
	"github.com/arunvm123/ticketbooking/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Port:        "0",
		Environment: "test",
		JWT:         config.JWT{Secret: "test-secret", Issuer: "ticketbooking-test", Expiry: time.Hour},
		Database:    config.Database{Driver: config.DriverMemory},
		Cache: config.Cache{
			Driver:   config.DriverMemory,
			EventTTL: time.Minute,
			ListTTL:  time.Minute,
			TagTTL:   time.Hour,
		},
		Booking:   config.Booking{TxTimeout: 5 * time.Second},
		RateLimit: config.RateLimit{Enabled: true, Requests: 100, Window: time.Minute},
		CORS:      config.CORS{AllowedOrigins: []string{"http://localhost:3000"}},
		Admin:     config.Admin{Email: adminEmail, Password: adminPassword},
	}
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := testConfig()
	for _, fn := range mutate {
		fn(cfg)
	}

	deps, err := BuildDependencies(t.Context(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	return &testServer{t: t, router: SetupRouter(cfg, deps, zap.NewNop())}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", "", model.LoginRequest{Email: email, Password: password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[model.LoginResponse](s.t, w).AccessToken
}

func (s *testServer) registerAndLogin(email string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", model.RegisterRequest{Email: email, Password: "password123"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(email, "password123")
}

func (s *testServer) createEvent(adminToken string, category model.Category, capacity int) model.EventResponse {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/events", adminToken, model.CreateEventAPIRequest{
		Name:          "Cup Final",
		Description:   "Last match of the season",
		Category:      category,
		Date:          time.Date(2026, 11, 20, 19, 0, 0, 0, time.UTC),
		Venue:         "Stadium",
		Price:         4500,
		TotalCapacity: capacity,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.EventResponse](s.t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[model.ErrorResponse](t, w).Error
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[model.HealthResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, map[string]string{"database": "healthy", "cache": "healthy"}, health.Checks)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))

	w = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/auth/register", "", model.RegisterRequest{Email: "ana@example.com", Password: "password123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decode[model.UserResponse](t, w)
	assert.Equal(t, model.RoleUser, user.Role)

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
		wantError  string
	}{
		{"duplicate email", "/api/auth/register", model.RegisterRequest{Email: "ana@example.com", Password: "password123"}, http.StatusConflict, "email_taken"},
		{"short password", "/api/auth/register", model.RegisterRequest{Email: "bob@example.com", Password: "short"}, http.StatusBadRequest, "validation_failed"},
		{"bad email", "/api/auth/register", model.RegisterRequest{Email: "not-an-email", Password: "password123"}, http.StatusBadRequest, "validation_failed"},
		{"wrong password", "/api/auth/login", model.LoginRequest{Email: "ana@example.com", Password: "wrong-password"}, http.StatusUnauthorized, "authentication_failed"},
		{"unknown user", "/api/auth/login", model.LoginRequest{Email: "nobody@example.com", Password: "password123"}, http.StatusUnauthorized, "authentication_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, errorCode(t, w))
		})
	}

	t.Run("login and profile", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/auth/login", "", model.LoginRequest{Email: "ana@example.com", Password: "password123"})
		require.Equal(t, http.StatusOK, w.Code)
		login := decode[model.LoginResponse](t, w)
		assert.Equal(t, 3600, login.ExpiresIn)
		assert.Equal(t, user.UserID, login.User.UserID)

		w = s.do(http.MethodGet, "/api/users/me", login.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ana@example.com", decode[model.UserResponse](t, w).Email)
	})

	t.Run("token required", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "authorization_required", errorCode(t, w))

		w = s.do(http.MethodGet, "/api/users/me", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_token", errorCode(t, w))
	})
}

func TestEventRoutes(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(adminEmail, adminPassword)
	userToken := s.registerAndLogin("ana@example.com")

	t.Run("users cannot manage events", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/events", userToken, model.CreateEventAPIRequest{})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("invalid category", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/events", adminToken, model.CreateEventAPIRequest{
			Name:          "Opera night",
			Description:   "Arias",
			Category:      "Opera",
			Date:          time.Now().Add(24 * time.Hour),
			Venue:         "Hall",
			TotalCapacity: 10,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_failed", errorCode(t, w))
	})

	event := s.createEvent(adminToken, model.CategorySports, 3)
	assert.Equal(t, 3, event.AvailableTickets)
	s.createEvent(adminToken, model.CategoryMusic, 5)

	t.Run("list", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/events?category=Sports&limit=10", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[model.EventListResponse](t, w)
		require.Len(t, list.Events, 1)
		assert.Equal(t, event.ID, list.Events[0].ID)
		assert.EqualValues(t, 1, list.Meta.Total)
		assert.Equal(t, 10, list.Meta.Limit)

		w = s.do(http.MethodGet, "/api/events", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[model.EventListResponse](t, w).Events, 2)
	})

	t.Run("list rejects bad parameters", func(t *testing.T) {
		for _, query := range []string{"page=abc", "limit=0", "category=Opera", "page=100000000000000001", "page=10001"} {
			w := s.do(http.MethodGet, "/api/events?"+query, "", nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, query)
		}
	})

	t.Run("get", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/events/"+event.ID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, event.Name, decode[model.EventResponse](t, w).Name)

		w = s.do(http.MethodGet, "/api/events/"+uuid.NewString(), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = s.do(http.MethodGet, "/api/events/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_id", errorCode(t, w))
	})

	t.Run("update and delete", func(t *testing.T) {
		update := model.UpdateEventAPIRequest{CreateEventAPIRequest: model.CreateEventAPIRequest{
			Name:          "Cup Final (moved)",
			Description:   event.Description,
			Category:      model.CategorySports,
			Date:          event.Date,
			Venue:         "New Stadium",
			Price:         event.Price,
			TotalCapacity: 4,
		}}
		w := s.do(http.MethodPut, "/api/events/"+event.ID, adminToken, update)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[model.EventResponse](t, w)
		assert.Equal(t, "New Stadium", updated.Venue)
		assert.Equal(t, 4, updated.AvailableTickets)

		w = s.do(http.MethodGet, "/api/events/"+event.ID, "", nil)
		assert.Equal(t, "Cup Final (moved)", decode[model.EventResponse](t, w).Name)

		w = s.do(http.MethodDelete, "/api/events/"+event.ID, adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = s.do(http.MethodGet, "/api/events/"+event.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBookingRoutes(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(adminEmail, adminPassword)
	ana := s.registerAndLogin("ana@example.com")
	bob := s.registerAndLogin("bob@example.com")

	event := s.createEvent(adminToken, model.CategoryMusic, 1)

	w := s.do(http.MethodPost, "/api/bookings", ana, model.CreateBookingRequest{EventID: event.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booking := decode[model.BookingResponse](t, w)
	assert.Equal(t, event.ID, booking.EventID)

	tests := []struct {
		name       string
		token      string
		body       interface{}
		wantStatus int
		wantError  string
	}{
		{"already booked", ana, model.CreateBookingRequest{EventID: event.ID}, http.StatusConflict, "already_booked"},
		{"sold out", bob, model.CreateBookingRequest{EventID: event.ID}, http.StatusConflict, "sold_out"},
		{"unknown event", bob, model.CreateBookingRequest{EventID: uuid.NewString()}, http.StatusNotFound, "not_found"},
		{"missing event id", bob, map[string]string{}, http.StatusBadRequest, "validation_failed"},
		{"admins do not book", adminToken, model.CreateBookingRequest{EventID: event.ID}, http.StatusForbidden, "forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/bookings", tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, errorCode(t, w))
		})
	}

	t.Run("event shows sold out", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/events/"+event.ID, "", nil)
		got := decode[model.EventResponse](t, w)
		assert.Equal(t, 0, got.AvailableTickets)
		assert.True(t, got.SoldOut)
	})

	t.Run("list", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/bookings", ana, nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[[]model.UserBookingResponse](t, w)
		require.Len(t, list, 1)
		assert.Equal(t, booking.ID, list[0].Booking.ID)
		assert.Equal(t, event.Name, list[0].BookedEvent.Name)

		w = s.do(http.MethodGet, "/api/bookings", bob, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]model.UserBookingResponse](t, w))
	})

	t.Run("cancel", func(t *testing.T) {
		w := s.do(http.MethodDelete, "/api/bookings/"+booking.ID, bob, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "only the owner can cancel")

		w = s.do(http.MethodDelete, "/api/bookings/"+booking.ID, ana, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = s.do(http.MethodDelete, "/api/bookings/"+booking.ID, ana, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = s.do(http.MethodGet, "/api/events/"+event.ID, "", nil)
		assert.Equal(t, 1, decode[model.EventResponse](t, w).AvailableTickets)

		w = s.do(http.MethodPost, "/api/bookings", bob, model.CreateBookingRequest{EventID: event.ID})
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Requests = 2
		cfg.Admin = config.Admin{}
	})

	body := model.LoginRequest{Email: "ana@example.com", Password: "password123"}
	for i := 0; i < 2; i++ {
		w := s.do(http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := s.do(http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// Event reads are not limited.
	w = s.do(http.MethodGet, "/api/events", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
