package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/config"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/migration"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/observability"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/server"
	"github.com/Biniyam0911/HospitalManager-sub001/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
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
