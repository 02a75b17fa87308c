package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/Ishan662/Employee-Management-System-backend/internal/migrate"
	"github.com/Ishan662/Employee-Management-System-backend/internal/obs"
	"github.com/Ishan662/Employee-Management-System-backend/internal/store/pg"
	"github.com/Ishan662/Employee-Management-System-backend/migrations"
)

func main() {
	var (
		dsn     = flag.String("dsn", os.Getenv("EMS_PG_DSN"), "PostgreSQL DSN")
		timeout = flag.Duration("timeout", 30*time.Second, "Overall command timeout")
	)
	flag.Parse()

	logger, err := obs.NewLogger(os.Getenv("EMS_LOG_LEVEL"), "console", "ems-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if *dsn == "" {
		logger.Fatal("missing DSN: provide via -dsn or EMS_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		logger.Fatal("usage: migrate [up|down|seed|status|grants]")
	}
	cmd := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	mgr := migrate.NewManager(db, migrations.FS, migrations.MigrationsDir, migrations.SeedsDir)

	switch cmd {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		var status []migrate.MigrationStatus
		status, err = mgr.Status(ctx)
		for _, item := range status {
			if item.Applied {
				fmt.Printf("applied  %s  %s\n", item.AppliedAt.Format(time.RFC3339), item.Name)
			} else {
				fmt.Printf("pending  %-20s  %s\n", "", item.Name)
			}
		}
	case "grants":
		err = printGrants(ctx, pg.New(db))
	default:
		logger.Fatal("unknown command", zap.String("command", cmd))
	}
	if err != nil {
		logger.Fatal("migrate failed", zap.String("command", cmd), zap.Error(err))
	}
	logger.Info("migrate done", zap.String("command", cmd))
}

// printGrants lists every role with its permission names.
func printGrants(ctx context.Context, store *pg.Store) error {
	roles, err := store.ListRolesWithPermissions(ctx)
	if err != nil {
		return err
	}
	for _, role := range roles {
		names := role.PermissionNames()
		if len(names) == 0 {
			fmt.Printf("%s: (none)\n", role.Name)
			continue
		}
		fmt.Printf("%s: %s\n", role.Name, strings.Join(names, ", "))
	}
	return nil
}
