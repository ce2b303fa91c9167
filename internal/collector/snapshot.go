package collector

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
)

// snapshotMinifier squeezes whitespace and comments but keeps the document
// structure, so a snapshot can still be matched against the card policy.
func snapshotMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &minhtml.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return m
}

// WriteSnapshot minifies the rendered page and writes it to path.
func WriteSnapshot(path, page string) error {
	out, err := snapshotMinifier().String("text/html", page)
	if err != nil {
		return fmt.Errorf("minify snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}
