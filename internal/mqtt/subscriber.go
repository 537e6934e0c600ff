// Package mqtt is an alternate ingestion front-end listening on the
// machine's MQTT topics. It reuses the exact write+publish contract of
// the HTTP gateway and stays disabled unless MQTT_ENABLED is set.
package mqtt

import (
	"context"
	"encoding/json"
	"strings"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/mmdba/supmmdba/internal/config"
	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// topicCategories maps the final topic segment to a telemetry category.
var topicCategories = map[string]telemetrydomain.Category{
	"status":     telemetrydomain.CategoryStatus,
	"alarmes":    telemetrydomain.CategoryAlarm,
	"avisos":     telemetrydomain.CategoryWarning,
	"ios":        telemetrydomain.CategoryIO,
	"velocidade": telemetrydomain.CategorySpeed,
	"contagem":   telemetrydomain.CategoryProduction,
	"dados":      telemetrydomain.CategoryData,
}

type Subscriber struct {
	cfg    config.MQTTConfig
	log    *zap.Logger
	svc    telemetrydomain.Service
	client pahomqtt.Client
}

func NewSubscriber(cfg config.Config, log *zap.Logger, svc telemetrydomain.Service) *Subscriber {
	return &Subscriber{
		cfg: cfg.MQTT,
		log: log.Named("mqtt.subscriber"),
		svc: svc,
	}
}

func (s *Subscriber) Start(ctx context.Context) error {
	clientID := s.cfg.ClientID
	if clientID == "" {
		clientID = "supmmdba-" + uuid.NewString()
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOnConnectHandler(func(client pahomqtt.Client) {
			token := client.Subscribe(s.cfg.Topic, 0, s.handleMessage)
			token.Wait()
			if err := token.Error(); err != nil {
				s.log.Error("mqtt subscribe failed", zap.String("topic", s.cfg.Topic), zap.Error(err))
				return
			}
			s.log.Info("mqtt subscribed", zap.String("topic", s.cfg.Topic))
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			s.log.Warn("mqtt connection lost", zap.Error(err))
		})

	s.client = pahomqtt.NewClient(opts)
	// connection retries run in the background; startup never blocks on
	// broker availability
	s.client.Connect()
	return nil
}

func (s *Subscriber) Stop(ctx context.Context) error {
	if s.client != nil && s.client.IsConnectionOpen() {
		s.client.Disconnect(250)
	}
	return nil
}

func (s *Subscriber) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	topic := msg.Topic()
	segment := topic
	if i := strings.LastIndex(topic, "/"); i >= 0 {
		segment = topic[i+1:]
	}

	category, ok := topicCategories[strings.ToLower(segment)]
	if !ok {
		s.log.Warn("mqtt message on unmapped topic", zap.String("topic", topic))
		return
	}

	var req telemetrydomain.IngestRequest
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		s.log.Warn("mqtt payload not decodable", zap.String("topic", topic), zap.Error(err))
		return
	}
	if req.EventCode == "" || req.Value == "" || req.Origin == "" || req.EventType == "" {
		s.log.Warn("mqtt payload missing required fields", zap.String("topic", topic))
		return
	}

	if _, err := s.svc.Ingest(context.Background(), category, req); err != nil {
		s.log.Error("mqtt ingestion failed", zap.String("topic", topic), zap.Error(err))
	}
}

func register(lc fx.Lifecycle, cfg config.Config, sub *Subscriber) {
	if !cfg.MQTT.Enabled {
		return
	}
	lc.Append(fx.Hook{
		OnStart: sub.Start,
		OnStop:  sub.Stop,
	})
}

var Module = fx.Module("mqtt.subscriber",
	fx.Provide(NewSubscriber),
	fx.Invoke(register),
)
