package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mioplatform/mio-backend/internal/data/repos"
	"github.com/mioplatform/mio-backend/internal/db"
	"github.com/mioplatform/mio-backend/internal/platform/envutil"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
	"github.com/mioplatform/mio-backend/internal/seed"
)

func main() {
	log, err := logger.New(envutil.Str("APP_ENV", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	path := envutil.Str("SEED_FILE", "seeds/curriculum.yaml")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Failed to init database", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}
	gdb := pg.DB()

	seeder := seed.NewSeeder(
		gdb,
		log,
		repos.NewProtocolRepo(gdb, log),
		repos.NewProtocolTaskRepo(gdb, log),
		repos.NewProgramRepo(gdb, log),
		repos.NewProgramPhaseRepo(gdb, log),
		repos.NewLessonRepo(gdb, log),
		repos.NewTacticRepo(gdb, log),
	)

	if err := seeder.Run(context.Background(), path); err != nil {
		log.Fatal("Seeding failed", "file", path, "error", err)
	}
	log.Info("Seeding complete", "file", path)
}
