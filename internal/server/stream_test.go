package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_RequiresSession(t *testing.T) {
	f := newServerFixture(t)

	for _, path := range []string{
		"/statusHub", "/alarmesHub", "/avisosHub", "/iosHub",
		"/velocidadeHub", "/contagemHub", "/dadosHub",
	} {
		w := f.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestStream_DeliversPublishedRecords(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.login(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/statusHub", nil).WithContext(ctx)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.engine.ServeHTTP(w, req)
	}()

	record := telemetrydomain.Record{
		EventCode: "st01",
		Value:     "Em Producao",
		Origin:    "Rotuladora",
		EventType: "Status",
		Timestamp: serverTestNow,
	}
	// the handler subscribes asynchronously; keep publishing until it
	// had a chance to attach, the subscriber buffer absorbs the rest
	for i := 0; i < 60; i++ {
		f.server.hub.Publish(telemetrydomain.CategoryStatus, record)
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not stop on context cancellation")
	}

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.Contains(t, body, "retry: 2000")
	assert.Contains(t, body, "event: postStatus")
	assert.Contains(t, body, `"codigoEvento":"st01"`)
}
