package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"library-api/pkg/logger"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

var migrationName = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)

// Migration is one numbered schema change with its up and down scripts.
type Migration struct {
	Version uint
	Name    string
	Up      string
	Down    string
}

// MigrationStatus reports whether a migration is part of the current schema.
type MigrationStatus struct {
	Migration
	Applied bool
}

// Migrator applies the embedded migrations; golang-migrate records the
// current version in schema_migrations.
type Migrator struct {
	m          *migrate.Migrate
	migrations []Migration
	log        *logger.Loggers
}

// NewMigrator opens its own connection to databaseURL, see DBConfig.MigrationURL.
func NewMigrator(databaseURL string, log *logger.Loggers) (*Migrator, error) {
	sub, err := migrationsFS()
	if err != nil {
		return nil, err
	}
	migrations, err := LoadMigrations(sub)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migration target: %w", err)
	}
	m.Log = migrateLogger{log: log}

	return &Migrator{m: m, migrations: migrations, log: log}, nil
}

func migrationsFS() (fs.FS, error) {
	return fs.Sub(embeddedMigrations, "migrations")
}

// LoadMigrations reads NNNN_name.up.sql / NNNN_name.down.sql pairs from the
// root of fsys, ordered by version.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := map[uint]*Migration{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := migrationName.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("unexpected migration file %q", e.Name())
		}
		version, _ := strconv.ParseUint(m[1], 10, 0)
		body, err := fs.ReadFile(fsys, path.Clean(e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}

		mig, ok := byVersion[uint(version)]
		if !ok {
			mig = &Migration{Version: uint(version), Name: m[2]}
			byVersion[uint(version)] = mig
		} else if mig.Name != m[2] {
			return nil, fmt.Errorf("migration %d has conflicting names %q and %q", version, mig.Name, m[2])
		}
		if m[3] == "up" {
			mig.Up = string(body)
		} else {
			mig.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.Up == "" {
			return nil, fmt.Errorf("migration %d_%s has no up script", mig.Version, mig.Name)
		}
		out = append(out, *mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// EmbeddedMigrations lists the migrations compiled into the binary.
func EmbeddedMigrations() ([]Migration, error) {
	sub, err := migrationsFS()
	if err != nil {
		return nil, err
	}
	return LoadMigrations(sub)
}

// version is the schema version, 0 when nothing was applied yet.
func (m *Migrator) version() (uint, error) {
	v, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if dirty {
		return v, fmt.Errorf("schema version %d is dirty; fix it by hand and force the version", v)
	}
	return v, nil
}

// between returns the migrations with from < version <= to, in version order.
func (m *Migrator) between(from, to uint) []Migration {
	var out []Migration
	for _, mig := range m.migrations {
		if mig.Version > from && mig.Version <= to {
			out = append(out, mig)
		}
	}
	return out
}

// Up applies every pending migration.
func (m *Migrator) Up() ([]Migration, error) {
	before, err := m.version()
	if err != nil {
		return nil, err
	}

	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		after, _ := m.version()
		return m.between(before, after), fmt.Errorf("apply migrations: %w", err)
	}

	after, err := m.version()
	if err != nil {
		return nil, err
	}
	applied := m.between(before, after)
	for _, mig := range applied {
		m.log.LogSystem(logger.LevelInfo, "Migration applied", logger.Fields{
			"version": mig.Version,
			"name":    mig.Name,
		})
	}
	return applied, nil
}

// Down reverts the most recent steps applied migrations.
func (m *Migrator) Down(steps int) ([]Migration, error) {
	if steps < 1 {
		return nil, nil
	}
	before, err := m.version()
	if err != nil {
		return nil, err
	}
	if before == 0 {
		return nil, nil
	}

	applied := m.between(0, before)
	if steps > len(applied) {
		steps = len(applied)
	}

	if err := m.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("revert migrations: %w", err)
	}

	after, err := m.version()
	if err != nil {
		return nil, err
	}
	reverted := m.between(after, before)
	sort.Slice(reverted, func(i, j int) bool { return reverted[i].Version > reverted[j].Version })
	for _, mig := range reverted {
		m.log.LogSystem(logger.LevelInfo, "Migration reverted", logger.Fields{
			"version": mig.Version,
			"name":    mig.Name,
		})
	}
	return reverted, nil
}

// Status lists every known migration and whether it is applied.
func (m *Migrator) Status() ([]MigrationStatus, error) {
	current, err := m.version()
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(m.migrations))
	for _, mig := range m.migrations {
		out = append(out, MigrationStatus{Migration: mig, Applied: mig.Version <= current})
	}
	return out, nil
}

// Close releases the migrator's source and database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// migrateLogger routes golang-migrate's progress lines to the system channel.
type migrateLogger struct {
	log *logger.Loggers
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.LogSystem(logger.LevelDebug, strings.TrimSpace(fmt.Sprintf(format, v...)), logger.Fields{
		"component": "migrate",
	})
}

func (l migrateLogger) Verbose() bool {
	return l.log.Threshold() == logger.LevelDebug
}
