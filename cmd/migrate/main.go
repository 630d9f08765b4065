package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-meetup/internal/config"
	"ms-meetup/internal/database/migrations"
	"ms-meetup/internal/logger"
	"ms-meetup/internal/models"
)

func main() {
	action := flag.String("action", "up", "up, down, to, force or version")
	version := flag.Int("version", 0, "target version for -action=to and -action=force")
	seed := flag.Bool("seed", false, "insert demo users and banner files after migrating up")
	flag.Parse()

	logger := logger.NewLogger("migrate")
	defer logger.Close()

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	dsn := cfg.Database.PostgresDSN()

	runner := migrations.NewRunner(dsn, logger)
	defer runner.Close()

	var err error
	switch *action {
	case "up":
		err = runner.MigrateUp()
	case "down":
		err = runner.MigrateDown()
	case "to":
		err = runner.MigrateTo(uint(*version))
	case "force":
		err = runner.Force(*version)
	case "version":
		v, dirty, verr := runner.Version()
		if verr == nil {
			fmt.Printf("version=%d dirty=%t\n", v, dirty)
		}
		err = verr
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}

	if *seed && *action == "up" {
		if err := seedData(context.Background(), dsn); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Seeding failed: %v", err))
		}
		logger.LogDatabase("SEED", "users", "demo data inserted")
	}

	logger.Info("DATABASE", "✅ Done.")
}

func seedData(ctx context.Context, dsn string) error {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	// Users
	users := []models.User{
		{Name: "Diego Fernandes", Email: "diego@meetapp.com"},
		{Name: "Robson Marques", Email: "robson@meetapp.com"},
		{Name: "Cláudio Orlandi", Email: "claudio@meetapp.com"},
	}
	if _, err := db.NewInsert().Model(&users).On("CONFLICT (email) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	// Banners
	files := []models.File{
		{Name: "react-floripa.png", Path: "seed-react-floripa.png"},
		{Name: "go-sp.png", Path: "seed-go-sp.png"},
	}
	if _, err := db.NewInsert().Model(&files).On("CONFLICT (path) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("seed files: %w", err)
	}
	return nil
}
