package main

import (
	"context"
	"flag"
	"fmt"
	"mileage-reimbursement-service/internal/adapters/repositories"
	"mileage-reimbursement-service/internal/backup"
	"mileage-reimbursement-service/internal/config"
	"mileage-reimbursement-service/internal/platform/db"
	"mileage-reimbursement-service/internal/platform/logger"
	"os"

	"go.uber.org/zap"
)

const usage = `usage: dbtool <command> [flags]

commands:
  init              create tables and indexes
  seed [-file F]    insert vehicles listed in a JSON file
  backup            write a snapshot of the SQLite database`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), cfg, log, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal("dbtool failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	seedPath := fs.String("file", cfg.Database.SeedPath, "vehicle seed file (seed only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch cmd {
	case "init", "seed", "backup":
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	conn, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info("initializing database schema", zap.String("driver", cfg.Database.Driver))
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return err
	}

	switch cmd {
	case "seed":
		n, err := repositories.SeedVehiclesFromJSON(ctx, repositories.NewSQLVehicleRepository(conn), *seedPath)
		if err != nil {
			return err
		}
		log.Info("seeding complete", zap.String("file", *seedPath), zap.Int("vehicles", n))

	case "backup":
		m, err := backup.NewManager(conn, cfg.Backup.Dir, cfg.Backup.Keep, false, log)
		if err != nil {
			return err
		}
		info, err := m.Create(ctx)
		if err != nil {
			return err
		}
		log.Info("backup written", zap.String("name", info.Name), zap.Int("trips", info.Trips))
	}

	log.Info("done", zap.String("command", cmd))
	return nil
}
