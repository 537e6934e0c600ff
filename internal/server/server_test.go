package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	authdomain "github.com/mmdba/supmmdba/internal/auth/domain"
	authrepository "github.com/mmdba/supmmdba/internal/auth/repository"
	authservice "github.com/mmdba/supmmdba/internal/auth/service"
	"github.com/mmdba/supmmdba/internal/auth/session"
	"github.com/mmdba/supmmdba/internal/clock"
	"github.com/mmdba/supmmdba/internal/config"
	"github.com/mmdba/supmmdba/internal/observability/metrics"
	"github.com/mmdba/supmmdba/internal/telemetry/broadcast"
	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
	telemetryrepository "github.com/mmdba/supmmdba/internal/telemetry/repository"
	telemetryservice "github.com/mmdba/supmmdba/internal/telemetry/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testAPIKey = "chave-de-teste"

type serverFixture struct {
	server *Server
	engine *gin.Engine
	db     *gorm.DB
	clock  *clock.FakeClock
}

var serverTestNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&telemetrydomain.MachineEvent{},
		&telemetrydomain.SpeedSample{},
		&telemetrydomain.ProductionSample{},
		&authdomain.User{},
		&authdomain.Session{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{
		APIKey:     testAPIKey,
		SessionTTL: 12 * time.Hour,
	}
	log := zap.NewNop()
	clk := clock.NewFakeClock(serverTestNow)
	hub := broadcast.NewHub()
	m := metrics.New()

	telemetrySvc := telemetryservice.New(telemetryservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  telemetryrepository.Provide(),
		Hub:   hub,
	})
	authSvc := authservice.New(authservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Cfg:   cfg,
		Repo:  authrepository.Provide(),
	})

	engine := NewEngine(cfg, log, m)
	srv := NewServer(Params{
		Gin:          engine,
		Cfg:          cfg,
		DB:           db,
		Log:          log,
		TelemetrySvc: telemetrySvc,
		Authsvc:      authSvc,
		Sessions:     session.NewManager(cfg),
		Hub:          hub,
		Metrics:      m,
	})
	RegisterRoutes(srv)

	return &serverFixture{server: srv, engine: engine, db: db, clock: clk}
}

func (f *serverFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func ingestBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(telemetrydomain.IngestRequest{
		EventCode: "st01",
		Value:     "Em Producao",
		Info:      "linha 2",
		Origin:    "Rotuladora",
		EventType: "Status",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func (f *serverFixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	require.NoError(t, f.server.authsvc.EnsureUser(t.Context(), "operador", "segredo123"))

	body, err := json.Marshal(authdomain.LoginRequest{Username: "operador", Password: "segredo123"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == session.DefaultCookieName {
			return cookie
		}
	}
	t.Fatal("login response carried no session cookie")
	return nil
}

func TestIngest_APIKeyGate(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		sendHeader  bool
		wantStatus  int
		wantMessage string
	}{
		{"missing header", "", false, http.StatusUnauthorized, "Chave de API ausente no cabeçalho (X-API-Key)."},
		{"wrong key", "chave-errada", true, http.StatusUnauthorized, "Chave de API inválida."},
		{"valid key", testAPIKey, true, http.StatusOK, "Status da máquina recebido e salvo com sucesso."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newServerFixture(t)

			req := httptest.NewRequest(http.MethodPost, "/api/mmdba/rotuladora/status", ingestBody(t))
			req.Header.Set("Content-Type", "application/json")
			if tc.sendHeader {
				req.Header.Set("X-API-Key", tc.key)
			}
			w := f.do(req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantMessage)

			var count int64
			require.NoError(t, f.db.Table("machine_events").Count(&count).Error)
			if tc.wantStatus == http.StatusOK {
				assert.EqualValues(t, 1, count)
			} else {
				assert.EqualValues(t, 0, count, "a rejected request must not touch the store")
			}
		})
	}
}

func TestIngest_EmptyServerKeyRejectsEverything(t *testing.T) {
	f := newServerFixture(t)
	f.server.cfg.APIKey = ""

	req := httptest.NewRequest(http.MethodPost, "/api/mmdba/rotuladora/status", ingestBody(t))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "")
	w := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngest_MissingRequiredField(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/mmdba/rotuladora/alarmes",
		bytes.NewBufferString(`{"codigoEvento":"al01","origem":"Rotuladora"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	w := f.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, f.db.Table("machine_events").Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestIngest_EveryCategoryEndpoint(t *testing.T) {
	tests := []struct {
		path        string
		value       string
		table       string
		wantMessage string
	}{
		{"/api/mmdba/rotuladora/status", "Em Producao", "machine_events", "Status da máquina recebido e salvo com sucesso."},
		{"/api/mmdba/rotuladora/alarmes", "Porta aberta", "machine_events", "Alarme da máquina recebido e salvo com sucesso."},
		{"/api/mmdba/rotuladora/avisos", "Rotulo acabando", "machine_events", "Aviso da máquina recebido e salvo com sucesso."},
		{"/api/mmdba/rotuladora/velocidade", "37.8", "speed_samples", "Velocidade da máquina recebido e salvo com sucesso."},
		{"/api/mmdba/rotuladora/contagem", "1200", "production_samples", "Contagem de produção da máquina recebido e salvo com sucesso."},
		{"/api/mmdba/rotuladora/dados", "ciclo 4", "machine_events", "Dado da maquina recebido e salvo com sucesso."},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			f := newServerFixture(t)

			body, err := json.Marshal(telemetrydomain.IngestRequest{
				EventCode: "ev01",
				Value:     tc.value,
				Origin:    "Rotuladora",
				EventType: "Teste",
			})
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, tc.path, bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-API-Key", testAPIKey)
			w := f.do(req)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tc.wantMessage)

			var count int64
			require.NoError(t, f.db.Table(tc.table).Count(&count).Error)
			assert.EqualValues(t, 1, count)
		})
	}
}

func TestIngest_IOStoresNothing(t *testing.T) {
	f := newServerFixture(t)

	body, err := json.Marshal(telemetrydomain.IngestRequest{
		EventCode: "io07",
		Value:     "1",
		Origin:    "Rotuladora",
		EventType: "IO",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/mmdba/rotuladora/IOs", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	w := f.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Evento de IO da máquina recebido com sucesso.")

	for _, table := range []string{"machine_events", "speed_samples", "production_samples"} {
		var count int64
		require.NoError(t, f.db.Table(table).Count(&count).Error)
		assert.EqualValues(t, 0, count, table)
	}
}

func TestDashboard_RequiresSession(t *testing.T) {
	f := newServerFixture(t)

	paths := []string{
		"/api/dashboard/rotuladora/velocidade/ultima",
		"/api/dashboard/rotuladora/velocidade/historico",
		"/api/dashboard/rotuladora/producao/historico",
		"/api/dashboard/rotuladora/eventos/historico",
		"/api/dashboard/rotuladora/alarmes/ultimo",
		"/api/dashboard/rotuladora/status/ultimo",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := f.do(req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestDashboard_LatestStatusSentinel(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/rotuladora/status/ultimo", nil)
	req.AddCookie(cookie)
	w := f.do(req)

	require.Equal(t, http.StatusOK, w.Code)

	var record telemetrydomain.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "statusNOT", record.EventCode)
	assert.Equal(t, "Status Desconhecido", record.Value)
}

func TestDashboard_EventHistoryFlow(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.login(t)

	for i := 0; i < 5; i++ {
		body, err := json.Marshal(telemetrydomain.IngestRequest{
			EventCode: fmt.Sprintf("al%02d", i),
			Value:     "Porta aberta",
			Origin:    "Rotuladora",
			EventType: "Alarme",
		})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/mmdba/rotuladora/alarmes", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", testAPIKey)
		require.Equal(t, http.StatusOK, f.do(req).Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/rotuladora/eventos/historico?tipos=Alarme&limite=3", nil)
	req.AddCookie(cookie)
	w := f.do(req)

	require.Equal(t, http.StatusOK, w.Code)

	var events []telemetrydomain.EventView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	assert.Len(t, events, 3)
}

func TestDashboard_LatestSpeedDefault(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/rotuladora/velocidade/ultima", nil)
	req.AddCookie(cookie)
	w := f.do(req)

	require.Equal(t, http.StatusOK, w.Code)

	var point telemetrydomain.SpeedPoint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &point))
	assert.Equal(t, 0.0, point.Value)
	assert.True(t, point.Timestamp.Equal(serverTestNow))
}

func TestAuth_LoginRejectsBadCredentials(t *testing.T) {
	f := newServerFixture(t)
	require.NoError(t, f.server.authsvc.EnsureUser(t.Context(), "operador", "segredo123"))

	body, err := json.Marshal(authdomain.LoginRequest{Username: "operador", Password: "errado"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	for _, cookie := range w.Result().Cookies() {
		assert.NotEqual(t, session.DefaultCookieName, cookie.Name)
	}
}

func TestAuth_LogoutInvalidatesCookie(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.login(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookie)
	require.Equal(t, http.StatusOK, f.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard/rotuladora/status/ultimo", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)
}

func TestAuth_ExpiredSessionIsRejected(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.login(t)

	f.clock.Advance(13 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/rotuladora/status/ultimo", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// exercise a counter first so the exposition is not empty
	req := httptest.NewRequest(http.MethodPost, "/api/mmdba/rotuladora/status", ingestBody(t))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	require.Equal(t, http.StatusOK, f.do(req).Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "telemetry_ingest_records_total")
}
