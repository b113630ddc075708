// Command migrate applies the booking schema, including the partial unique
// index that enforces slot exclusivity. Statements are idempotent, so re-runs
// are safe.
package main

import (
	"context"
	_ "embed"
	"strings"
	"time"

	"github.com/mwestra/autoplein/libs/config"
	"github.com/mwestra/autoplein/libs/db"
	"github.com/mwestra/autoplein/libs/runtime"
)

//go:embed schema.sql
var schemaSQL string

func main() {
	logger := runtime.NewLogger("migrate")

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	for _, stmt := range splitStatements(schemaSQL) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			logger.Error("statement failed", "err", err, "stmt", firstLine(stmt))
			panic(err)
		}
	}
	logger.Info("schema applied")
}

func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func firstLine(stmt string) string {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return line
		}
	}
	return stmt
}
