// Command pgmap-example creates a table, lists it, inserts a user, lists it
// again and drops the table.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/dronm/pgmap"
	"github.com/dronm/pgmap/internal/logger"
	_ "github.com/dronm/pgmap/pgpool"
	_ "github.com/dronm/pgmap/sqlpool"
)

type queries struct {
	setup    *pgmap.Single[pgmap.Row]
	addUser  *pgmap.Single[pgmap.Row]
	getUsers *pgmap.Multiple[user]
	cleanup  *pgmap.Single[pgmap.Row]
}

type user struct {
	ID   int64
	Name string
}

func userFromRow(r pgmap.Row) (user, error) {
	var u user
	switch id := r["id"].(type) {
	case int32:
		u.ID = int64(id)
	case int64:
		u.ID = id
	}
	u.Name, _ = r["name"].(string)
	return u, nil
}

func newQueries(lib *pgmap.Library) *queries {
	return &queries{
		setup: lib.MapSingle(lib.Prepare(`
			CREATE TABLE IF NOT EXISTS users_example (id SERIAL, name text)
		`)),
		addUser: lib.MapSingle(lib.Prepare(`
			-- one positional parameter
			INSERT INTO users_example (name) values ($1)
		`), "name"),
		getUsers: pgmap.MapMultipleTo(lib, lib.Prepare(`
			SELECT * from users_example
		`), userFromRow),
		cleanup: lib.MapSingle(lib.Prepare(`
			DROP TABLE users_example
		`)),
	}
}

func main() {
	var (
		url       = pflag.String("url", "", "database url (default $DATABASE_URL)")
		cfgPath   = pflag.String("config", "", "yaml config file")
		driver    = pflag.String("driver", "", "pool provider: pg or sql")
		debug     = pflag.Bool("debug", false, "trace every query")
		verbosity = pflag.String("verbosity", "", "debug verbosity: input or all (default $DEBUG_SQL)")
		noSSL     = pflag.Bool("no-ssl", false, "disable ssl")
		logLevel  = pflag.String("log-level", "info", "log level")
	)
	pflag.Parse()

	log := logger.New(logger.Options{Level: *logLevel})
	if *debug {
		log = logger.New(logger.Options{Level: "debug"})
	}

	cfg := pgmap.Config{}
	if *cfgPath != "" {
		var err error
		if cfg, err = pgmap.LoadConfig(*cfgPath); err != nil {
			log.Error("config", slog.Any("err", err))
			os.Exit(1)
		}
	}
	if *url != "" {
		cfg.URL = *url
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *debug {
		cfg.Debug = true
	}
	if *verbosity != "" {
		cfg.Verbosity = pgmap.Verbosity(*verbosity)
	}
	if *noSSL {
		off := false
		cfg.SSL = &off
	}

	if err := run(context.Background(), cfg, log); err != nil {
		if pgmap.IsRoleAuth(err) {
			log.Error("(psql code 28000) error connecting, bad role: pass the proper connection information with --url")
		} else {
			log.Error("example failed", slog.Any("err", err))
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg pgmap.Config, log *slog.Logger) error {
	lib, err := pgmap.Open(ctx, cfg, pgmap.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = lib.Disconnect() }()

	q := newQueries(lib)

	if _, err := q.setup.Call(ctx, nil); err != nil {
		return err
	}

	users, err := q.getUsers.Call(ctx, nil)
	if err != nil {
		return err
	}
	fmt.Println("Initial Users", users)

	if _, err := q.addUser.Call(ctx, "Rich"); err != nil {
		return err
	}

	if users, err = q.getUsers.Call(ctx, nil); err != nil {
		return err
	}
	fmt.Println("Final Users", users)

	_, err = q.cleanup.Call(ctx, nil)
	return err
}
