package index

import (
	"log/slog"
	"time"

	"github.com/livamd/liva/internal/checksum"
	"github.com/livamd/liva/internal/parser"
	"github.com/livamd/liva/internal/props"
	"github.com/livamd/liva/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed documents are parsed, flattened, and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile parses raw document bytes and upserts the document row plus
// its flattened properties.
func IndexFile(db *DB, path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}

	flat := props.FlattenDocument(path, res.Frontmatter)
	rows := make([]PropertyRow, len(flat))
	for i, pv := range flat {
		rows[i] = PropertyRow{
			Doc:   path,
			Path:  pv.Path,
			Value: props.Stringify(pv.Value),
		}
	}

	return db.UpsertDocument(DocumentRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Markers:   res.Markers,
		UpdatedAt: time.Now(),
	}, rows)
}
