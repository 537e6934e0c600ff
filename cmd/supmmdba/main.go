package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/mmdba/supmmdba/internal/auth"
	"github.com/mmdba/supmmdba/internal/clock"
	"github.com/mmdba/supmmdba/internal/config"
	"github.com/mmdba/supmmdba/internal/logger"
	"github.com/mmdba/supmmdba/internal/migration"
	"github.com/mmdba/supmmdba/internal/mqtt"
	"github.com/mmdba/supmmdba/internal/observability/metrics"
	"github.com/mmdba/supmmdba/internal/retention"
	"github.com/mmdba/supmmdba/internal/seed"
	"github.com/mmdba/supmmdba/internal/server"
	"github.com/mmdba/supmmdba/internal/telemetry"
	"github.com/mmdba/supmmdba/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Functional Domains
		telemetry.Module,
		auth.Module,
		migration.Module,
		seed.Module,
		retention.Module,
		mqtt.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
