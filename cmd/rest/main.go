package main

import (
	"context"
	"log"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/bootstrap"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/config"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/server"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/tracer"
	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	if err := database.Migrate(gormDB); err != nil {
		log.Panicf("Unable to run migrations: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
