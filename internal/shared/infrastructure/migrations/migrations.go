// Package migrations embeds the board schema for every supported driver.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var schemaFS embed.FS

// Files returns the ordered .up.sql migrations for driver.
func Files(driver database.Driver) ([]string, error) {
	dir := driver.String()
	entries, err := fs.ReadDir(schemaFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations for %s: %w", driver, err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, dir+"/"+entry.Name())
		}
	}
	sort.Strings(upFiles)
	return upFiles, nil
}

// Run executes every migration for the connection's driver in order.
// Statements are written with IF NOT EXISTS so reruns are harmless.
func Run(ctx context.Context, conn database.Connection) error {
	files, err := Files(conn.Driver())
	if err != nil {
		return err
	}

	for _, file := range files {
		migration, err := schemaFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if err := conn.Exec(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}
	return nil
}
