package writer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// BoltLoader executes generated Cypher import files against a Neo4j
// instance over bolt.
type BoltLoader struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewBoltLoader connects to Neo4j and verifies connectivity before
// returning.
func NewBoltLoader(ctx context.Context, uri, username, password, database string, logger *slog.Logger) (*BoltLoader, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BoltLoader{driver: driver, database: database, logger: logger}, nil
}

// Close releases the underlying driver.
func (l *BoltLoader) Close(ctx context.Context) error {
	return l.driver.Close(ctx)
}

// LoadDir runs every .cypher file under dir. Node imports run before edge
// imports so MATCH clauses in the edge statements can find their endpoints.
func (l *BoltLoader) LoadDir(ctx context.Context, dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cypher" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan cypher files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no cypher files under %s", dir)
	}

	sort.Slice(files, func(i, j int) bool {
		ni, nj := isNodeFile(files[i]), isNodeFile(files[j])
		if ni != nj {
			return ni
		}
		return files[i] < files[j]
	})

	for _, path := range files {
		if err := l.runFile(ctx, path); err != nil {
			return fmt.Errorf("run %s: %w", path, err)
		}
	}
	l.logger.Info("Finished loading imports", "dir", dir, "files", len(files))
	return nil
}

func (l *BoltLoader) runFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	session := l.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: l.database})
	defer session.Close(ctx)

	for _, stmt := range splitStatements(string(data)) {
		l.logger.Debug("Running import statement", "file", filepath.Base(path))
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return err
		}
		if _, err := result.Consume(ctx); err != nil {
			return err
		}
	}
	return nil
}

func isNodeFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "nodes_")
}

// splitStatements breaks a cypher file into individual statements. The
// generated statements never contain an embedded semicolon, so splitting on
// ";" is safe here.
func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
