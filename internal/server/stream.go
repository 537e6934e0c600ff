package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdba/supmmdba/internal/telemetry/broadcast"
	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
)

const streamHeartbeat = 15 * time.Second

// streamHandler serves one telemetry category as a server-sent event
// stream. Every record is pushed under the channel's fixed event name;
// there is no backlog, a client connecting late starts from the next
// record.
func (s *Server) streamHandler(category telemetrydomain.Category) gin.HandlerFunc {
	eventName := broadcast.EventNames[category]

	return func(c *gin.Context) {
		subscription, err := s.hub.Subscribe(category)
		if err != nil {
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		defer subscription.Close()

		writer := c.Writer
		headers := writer.Header()
		headers.Set("Content-Type", "text/event-stream")
		headers.Set("Cache-Control", "no-cache")
		headers.Set("Connection", "keep-alive")
		headers.Set("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		flusher, ok := writer.(http.Flusher)
		if !ok {
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
			return
		}
		flusher.Flush()

		ctx := c.Request.Context()
		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case record := <-subscription.Events():
				if err := writeStreamEvent(writer, eventName, record); err != nil {
					return
				}
				flusher.Flush()
			case <-heartbeat.C:
				if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeStreamEvent(w io.Writer, eventName string, record telemetrydomain.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName, data)
	return err
}
