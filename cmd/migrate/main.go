// Command migrate applies database migrations.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"github.com/inkwell-app/inkwell/internal/migrate"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, version")
		upTo    = flag.Int64("to", 0, "Target version for 'up' (0 means latest)")
	)
	flag.Parse()

	_ = godotenv.Load("../../.env")
	_ = godotenv.Overload("../../.env.local")

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			getEnv("POSTGRES_USER", "inkwell"),
			getEnv("POSTGRES_PASSWORD", "inkwell"),
			getEnv("POSTGRES_HOST", "localhost"),
			getEnv("POSTGRES_PORT", "5432"),
			getEnv("POSTGRES_DB", "inkwell"),
		)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	ctx := context.Background()
	m := migrate.NewMigrator(db, logger)

	switch *command {
	case "up":
		if *upTo > 0 {
			err = m.UpTo(ctx, *upTo)
		} else {
			err = m.Up(ctx)
		}
	case "down":
		err = m.Down(ctx)
	case "status":
		err = m.Status(ctx)
	case "version":
		var v int64
		v, err = m.Version(ctx)
		if err == nil {
			fmt.Printf("current version: %d\n", v)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (use up, down, status, version)\n", *command)
		os.Exit(1)
	}

	if err != nil {
		logger.Fatal("migration failed", zap.String("command", *command), zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
