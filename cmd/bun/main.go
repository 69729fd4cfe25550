package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/Black-And-White-Club/tarok-bot/app/database"
	sessionqueue "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/queue"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tarok-bot/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "bun",
		Usage: "tarok-bot database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "path to the configuration file",
			},
		},
		Commands: []*cli.Command{
			newMigrateCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// migrationEnv is opened once per command invocation.
type migrationEnv struct {
	dsn       string
	db        *bun.DB
	migrators map[string]*migrate.Migrator
	logger    *slog.Logger
}

func openEnv(c *cli.Context) (*migrationEnv, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.Open(c.Context, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	return &migrationEnv{
		dsn:       cfg.Postgres.DSN,
		db:        db,
		migrators: database.Migrators(db),
		logger:    observability.NewLogger(cfg.Observability.Environment),
	}, nil
}

// withEnv runs fn for the selected modules; --module narrows the set.
func withEnv(fn func(ctx context.Context, env *migrationEnv, module string, m *migrate.Migrator) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, err := openEnv(c)
		if err != nil {
			return err
		}
		defer env.db.Close()

		modules := database.ModuleNames(env.migrators)
		if only := c.String("module"); only != "" {
			if _, ok := env.migrators[only]; !ok {
				return fmt.Errorf("invalid module name: %s (have %s)", only, strings.Join(modules, ", "))
			}
			modules = []string{only}
		}
		for _, name := range modules {
			if err := fn(c.Context, env, name, env.migrators[name]); err != nil {
				return fmt.Errorf("module %s: %w", name, err)
			}
		}
		return nil
	}
}

func newMigrateCommand() *cli.Command {
	moduleFlag := &cli.StringFlag{Name: "module", Usage: "limit to one module"}

	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Flags: []cli.Flag{moduleFlag},
				Action: withEnv(func(ctx context.Context, _ *migrationEnv, name string, m *migrate.Migrator) error {
					fmt.Printf("Initializing migrations for module: %s\n", name)
					return m.Init(ctx)
				}),
			},
			{
				Name:    "up",
				Aliases: []string{"migrate"},
				Usage:   "apply pending migrations",
				Flags:   []cli.Flag{moduleFlag},
				Action: withEnv(func(ctx context.Context, _ *migrationEnv, name string, m *migrate.Migrator) error {
					if err := m.Lock(ctx); err != nil {
						return err
					}
					defer m.Unlock(ctx) //nolint:errcheck

					group, err := m.Migrate(ctx)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Printf("No new migrations to run for module: %s\n", name)
					} else {
						fmt.Printf("Migrated module: %s to %s\n", name, group)
					}
					return nil
				}),
			},
			{
				Name:    "down",
				Aliases: []string{"rollback"},
				Usage:   "roll back the last migration group",
				Flags:   []cli.Flag{moduleFlag},
				Action: withEnv(func(ctx context.Context, _ *migrationEnv, name string, m *migrate.Migrator) error {
					if err := m.Lock(ctx); err != nil {
						return err
					}
					defer m.Unlock(ctx) //nolint:errcheck

					group, err := m.Rollback(ctx)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Printf("No groups to roll back for module: %s\n", name)
					} else {
						fmt.Printf("Rolled back module: %s to %s\n", name, group)
					}
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Flags: []cli.Flag{moduleFlag},
				Action: withEnv(func(ctx context.Context, _ *migrationEnv, name string, m *migrate.Migrator) error {
					ms, err := m.MigrationsWithStatus(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("Migrations for module: %s\n", name)
					fmt.Printf("  %s\n", ms)
					fmt.Printf("  Applied: %s\n", ms.Applied())
					fmt.Printf("  Unapplied: %s\n", ms.Unapplied())
					return nil
				}),
			},
			{
				Name:      "create_go",
				Usage:     "create Go migration",
				ArgsUsage: "<module> <name...>",
				Action: func(c *cli.Context) error {
					env, err := openEnv(c)
					if err != nil {
						return err
					}
					defer env.db.Close()

					moduleName := c.Args().First()
					migrator, ok := env.migrators[moduleName]
					if !ok {
						return fmt.Errorf("invalid module name: %s", moduleName)
					}
					mf, err := migrator.CreateGoMigration(c.Context, strings.Join(c.Args().Tail(), "_"))
					if err != nil {
						return err
					}
					fmt.Printf("Created migration for module %s: %s (%s)\n", moduleName, mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:  "river",
				Usage: "apply the idle-expiry queue (River) migrations",
				Action: func(c *cli.Context) error {
					env, err := openEnv(c)
					if err != nil {
						return err
					}
					defer env.db.Close()
					return sessionqueue.Migrate(c.Context, env.dsn, env.logger)
				},
			},
			{
				Name:  "all",
				Usage: "init and apply every module migration plus River",
				Action: func(c *cli.Context) error {
					env, err := openEnv(c)
					if err != nil {
						return err
					}
					defer env.db.Close()
					return database.MigrateAll(c.Context, env.db, env.dsn, env.logger)
				},
			},
		},
	}
}
