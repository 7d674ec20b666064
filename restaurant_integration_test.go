package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zemen-restaurant/zemen-backend/auth"
	"github.com/zemen-restaurant/zemen-backend/cache"
	"github.com/zemen-restaurant/zemen-backend/config"
	"github.com/zemen-restaurant/zemen-backend/database"
	"github.com/zemen-restaurant/zemen-backend/events"
	"github.com/zemen-restaurant/zemen-backend/models"
	"github.com/zemen-restaurant/zemen-backend/router"
	"github.com/zemen-restaurant/zemen-backend/services"
)

const prefix = "/api/orders"

type testApp struct {
	handler http.Handler
	hub     *events.Hub
}

// setupApp wires the real router against in-memory sqlite and a fake Stripe.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{
		AppEnv:         "test",
		APIPrefix:      prefix,
		ServiceName:    "zemen-backend",
		AllowedOrigins: []string{"http://localhost:3000"},
		Auth:           config.AuthConfig{JWTSecret: "integration-secret", JWTExpiry: time.Hour, Issuer: "zemen-test"},
		Payment:        config.PaymentConfig{StripeSecretKey: "sk_test_1", Currency: "usd", Timeout: 5 * time.Second},
	}

	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, log))

	for _, u := range []struct {
		name  string
		admin bool
	}{{"admin", true}, {"cashier", false}} {
		hash, err := auth.HashPassword("ZemenRestaurant123")
		require.NoError(t, err)
		require.NoError(t, db.Create(&models.User{Username: u.name, Password: hash, IsAdmin: u.admin}).Error)
	}

	stripe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_1","object":"payment_intent","client_secret":"pi_1_secret_xyz"}`))
	}))
	t.Cleanup(stripe.Close)
	cfg.Payment.StripeAPIURL = stripe.URL

	store := cache.NewMemoryStore()
	hub := events.NewHub(log)
	bus := events.NewMulti(cfg.ServiceName, hub)

	r := router.SetupRouter(router.Dependencies{
		Config:       cfg,
		Log:          log,
		Orders:       services.NewOrderService(db, store, bus, log),
		Reservations: services.NewReservationService(db, bus, log),
		Auth:         services.NewAuthService(db, auth.NewTokenManager(cfg.Auth), auth.NewRevoker(store), log),
		Payments:     services.NewPaymentService(cfg.Payment, log),
		Hub:          hub,
	})
	return &testApp{handler: r, hub: hub}
}

func (a *testApp) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, prefix+path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(t *testing.T, username string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/admin/login/", `{"username":"`+username+`","password":"ZemenRestaurant123"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, username, resp.Username)
	return resp.Token
}

// TestEndToEndIntegration walks the main flows:
// 1. customer submits an order (first with a missing street)
// 2. admin logs in and lists orders
// 3. customer books a table, admin confirms it
// 4. customer asks for a payment intent
// 5. admin logs out
func TestEndToEndIntegration(t *testing.T) {
	app := setupApp(t)

	w := app.do(t, http.MethodPost, "/submit/", `{"name":"Abebe","phone":"0911","order_type":"delivery",
		"street":"","city":"AA","state":"AA","zip":"10000","total_price":"12.00",
		"items":[{"name":"Tibs","quantity":1,"price":"12.00"}]}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Delivery address is required for delivery orders.")

	w = app.do(t, http.MethodPost, "/submit/", `{"name":"Abebe","phone":"0911","order_type":"delivery",
		"street":"Bole Rd","city":"AA","state":"AA","zip":"10000","total_price":"12.00",
		"items":[{"name":"Tibs","quantity":1,"price":"12.00"}]}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"delivery_address":"Bole Rd, AA, AA 10000"`)

	w = app.do(t, http.MethodPost, "/submit", `{"name":"Sara","phone":"0933","order_type":"pickup",
		"total_price":"5.00","pickup_payment_method":"store","items":[]}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"delivery_address":null`)

	// admin area
	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodGet, "/admin/orders/", "", "").Code)
	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/admin/orders/", "", app.login(t, "cashier")).Code)

	w = app.do(t, http.MethodPost, "/admin/login/", `{"username":"admin","password":"wrong"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := app.login(t, "admin")

	w = app.do(t, http.MethodGet, "/profile/", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"admin"`)

	w = app.do(t, http.MethodGet, "/admin/orders/", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []struct {
		Name  string `json:"name"`
		Items []struct {
			ItemName string `json:"item_name"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	require.Len(t, orders, 2)
	assert.Equal(t, "Sara", orders[0].Name)
	assert.Equal(t, "Abebe", orders[1].Name)
	require.Len(t, orders[1].Items, 1)
	assert.Equal(t, "Tibs", orders[1].Items[0].ItemName)

	// reservations
	w = app.do(t, http.MethodPost, "/reservations/", `{"name":"Selam","phone":"0922","email":"",
		"reservation_date":"2024-06-01","reservation_time":"19:30","people_count":4,"special_request":""}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reservation struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reservation))
	assert.Equal(t, "pending", reservation.Status)

	w = app.do(t, http.MethodPatch, "/admin/reservations/999/", `{"status":"confirmed"}`, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	path := "/admin/reservations/" + jsonID(reservation.ID) + "/"
	w = app.do(t, http.MethodPatch, path, `{"status":"archived"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPatch, path, `{"status":"confirmed"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"confirmed"`)

	w = app.do(t, http.MethodGet, "/admin/reservations/", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reservation_time":"19:30:00"`)

	// payments
	w = app.do(t, http.MethodPost, "/create-intent/", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Amount is required")

	w = app.do(t, http.MethodPost, "/create-intent/", `{"amount":1200}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"client_secret":"pi_1_secret_xyz"}`, w.Body.String())

	// logout revokes the token
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/admin/logout/", "", token).Code)
	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodGet, "/profile/", "", token).Code)
}

func TestPingAndSecurityHeaders(t *testing.T) {
	app := setupApp(t)

	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAdminLiveFeed(t *testing.T) {
	app := setupApp(t)
	srv := httptest.NewServer(app.handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + prefix + "/admin/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := app.login(t, "admin")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return app.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	w := app.do(t, http.MethodPost, "/submit/", `{"name":"Abebe","phone":"0911","order_type":"pickup","total_price":"3.50"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		EventType string `json:"event_type"`
		Producer  string `json:"producer"`
		Data      struct {
			Name       string `json:"name"`
			TotalPrice string `json:"total_price"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, events.OrderCreated, event.EventType)
	assert.Equal(t, "zemen-backend", event.Producer)
	assert.Equal(t, "Abebe", event.Data.Name)
	assert.Equal(t, "3.50", event.Data.TotalPrice)
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
