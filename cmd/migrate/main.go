package main

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rentfolio/internal/config"
	"rentfolio/internal/db"
	"rentfolio/internal/logger"

	"github.com/jmoiron/sqlx"
)

const downMarker = "-- +migrate Down"

func main() {
	cfg := config.Load()
	log := logger.New(cfg.AppEnv)

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer conn.Close()

	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (filename text primary key, applied_at timestamptz default now())`); err != nil {
		log.Fatal().Err(err).Msg("ensure schema_migrations")
	}

	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		log.Fatal().Err(err).Msg("list migrations")
	}
	sort.Strings(files)

	for _, file := range files {
		name := filepath.Base(file)
		var applied bool
		if err := conn.Get(&applied, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, name); err != nil {
			log.Fatal().Err(err).Str("migration", name).Msg("read migration state")
		}
		if applied {
			continue
		}
		if err := apply(conn, file); err != nil {
			log.Fatal().Err(err).Str("migration", name).Msg("apply migration")
		}
		if _, err := conn.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, name); err != nil {
			log.Fatal().Err(err).Str("migration", name).Msg("record migration")
		}
		log.Info().Str("migration", name).Msg("applied")
	}
}

// apply runs the up section of a migration file, statement by statement.
func apply(conn *sqlx.DB, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	up, _, _ := strings.Cut(string(content), downMarker)
	for _, stmt := range splitStatements(up) {
		if strings.TrimSpace(stmt) == ";" {
			continue
		}
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// splitStatements cuts SQL text on semicolons, dropping comment lines.
func splitStatements(sqlText string) []string {
	var out []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(sqlText))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.Contains(line, ";") {
			out = append(out, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		out = append(out, current.String())
	}
	return out
}
