// Package main applies the schema migrations for the realm server database.
//
// Usage:
//
//	migrate -config configs/dev.yaml up
//	migrate -config configs/dev.yaml down 1
//	migrate -config configs/dev.yaml version
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/viper"

	"github.com/openrealms/server/internal/config"
)

func main() {
	configPath := "configs/dev.yaml"
	source := "file://migrations"

	args := os.Args[1:]
	for len(args) >= 2 && args[0][0] == '-' {
		switch args[0] {
		case "-config", "--config":
			configPath = args[1]
		case "-source", "--source":
			source = args[1]
		default:
			log.Fatalf("unknown flag %s", args[0])
		}
		args = args[2:]
	}
	if len(args) == 0 {
		log.Fatal("usage: migrate [-config path] [-source url] up|down [steps]|version")
	}

	dbCfg, err := loadDatabaseConfig(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	m, err := migrate.New(source, dbCfg.DSN())
	if err != nil {
		log.Fatalf("opening migrator: %v", err)
	}
	defer m.Close()

	if err := run(m, args); err != nil {
		log.Fatalf("migrate %s: %v", args[0], err)
	}
}

// loadDatabaseConfig reads only the database section so the migrator works
// against configs whose other sections would not validate yet.
func loadDatabaseConfig(path string) (config.DatabaseConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return config.DatabaseConfig{}, err
	}
	sub := v.Sub("database")
	if sub == nil {
		return config.DatabaseConfig{}, fmt.Errorf("%s has no database section", path)
	}
	var cfg config.DatabaseConfig
	if err := sub.Unmarshal(&cfg); err != nil {
		return config.DatabaseConfig{}, err
	}
	return cfg, nil
}

func run(m *migrate.Migrate, args []string) error {
	var err error
	switch args[0] {
	case "up":
		if n, ok := stepsArg(args); ok {
			err = m.Steps(n)
		} else {
			err = m.Up()
		}
	case "down":
		if n, ok := stepsArg(args); ok {
			err = m.Steps(-n)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			return verr
		}
		fmt.Printf("version=%d dirty=%v\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("no pending migrations")
		return nil
	}
	if err != nil {
		return err
	}

	version, dirty, _ := m.Version()
	fmt.Printf("done: version=%d dirty=%v\n", version, dirty)
	return nil
}

func stepsArg(args []string) (int, bool) {
	if len(args) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
