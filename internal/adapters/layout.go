package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/internal/pathutil"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// LayoutAdapter ingests the layout-scanner file catalog. Unlike every
// other adapter it writes the catalog instead of resolving against it.
type LayoutAdapter struct {
	repo *repositories.LayoutRepository
}

// NewLayoutAdapter creates the catalog adapter.
func NewLayoutAdapter(session *database.Session) *LayoutAdapter {
	return &LayoutAdapter{repo: repositories.NewLayoutRepository(session)}
}

var _ Adapter = &LayoutAdapter{}

func (a *LayoutAdapter) Name() string { return "layout-scanner" }

func (a *LayoutAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{repositories.LayoutFilesTable, repositories.LayoutDirectoriesTable}
}

func (a *LayoutAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type layoutFileEntry struct {
	ID                string  `json:"id"`
	Path              string  `json:"path"`
	Name              string  `json:"name"`
	Extension         *string `json:"extension"`
	Language          *string `json:"language"`
	Classification    *string `json:"classification"`
	SizeBytes         *int64  `json:"size_bytes"`
	LineCount         *int64  `json:"line_count"`
	IsBinary          *bool   `json:"is_binary"`
	ParentDirectoryID string  `json:"parent_directory_id"`
}

type layoutDirEntry struct {
	ID                 string  `json:"id"`
	Path               string  `json:"path"`
	ParentDirectoryID  *string `json:"parent_directory_id"`
	Depth              int64   `json:"depth"`
	RecursiveFileCount *int64  `json:"recursive_file_count"`
	RecursiveSizeBytes *int64  `json:"recursive_size_bytes"`
}

type layoutPayload struct {
	Files       map[string]layoutFileEntry `json:"files"`
	Directories map[string]layoutDirEntry  `json:"directories"`
}

func (a *LayoutAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload layoutPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode layout-scanner data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	files := a.mapFiles(p, rc.RunPK, payload.Files)
	directories := a.mapDirectories(p, rc.RunPK, payload.Directories)

	if err := a.repo.InsertFiles(ctx, tx, files); err != nil {
		return err
	}
	return a.repo.InsertDirectories(ctx, tx, directories)
}

func (a *LayoutAdapter) checkQuality(payload layoutPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	i := 0
	for key, entry := range payload.Files {
		raw := entry.Path
		if raw == "" {
			raw = key
		}
		path := pathutil.NormalizeFilePath(raw)
		if path != "" && path != "." {
			c.Checkf(pathutil.IsRepoRelative(path), "file[%d] path invalid: %s", i, raw)
		}
		c.NonEmpty(fmt.Sprintf("file[%d].id", i), entry.ID)
		if entry.SizeBytes != nil {
			c.NonNegative(fmt.Sprintf("file[%d].size_bytes", i), *entry.SizeBytes)
		}
		if entry.LineCount != nil {
			c.NonNegative(fmt.Sprintf("file[%d].line_count", i), *entry.LineCount)
		}
		i++
	}
	i = 0
	for key, entry := range payload.Directories {
		raw := entry.Path
		if raw == "" {
			raw = key
		}
		path := pathutil.NormalizeDirPath(raw)
		if path != "." {
			c.Checkf(pathutil.IsRepoRelative(path), "dir[%d] path invalid: %s", i, raw)
		}
		c.NonEmpty(fmt.Sprintf("dir[%d].id", i), entry.ID)
		c.NonNegative(fmt.Sprintf("dir[%d].depth", i), entry.Depth)
		if entry.RecursiveFileCount != nil {
			c.NonNegative(fmt.Sprintf("dir[%d].recursive_file_count", i), *entry.RecursiveFileCount)
		}
		if entry.RecursiveSizeBytes != nil {
			c.NonNegative(fmt.Sprintf("dir[%d].recursive_size_bytes", i), *entry.RecursiveSizeBytes)
		}
		i++
	}
	return c.Err(p.logger)
}

func (a *LayoutAdapter) mapFiles(p *Pipeline, runPK int64, entries map[string]layoutFileEntry) []*entities.LayoutFile {
	seen := newDedupSet[string](a.Name(), p.logger)
	files := make([]*entities.LayoutFile, 0, len(entries))
	for key, entry := range entries {
		raw := entry.Path
		if raw == "" {
			raw = key
		}
		path := pathutil.NormalizeFilePath(raw)
		if path == "" || path == "." {
			continue
		}
		if !seen.claim(entry.ID, path) {
			continue
		}
		files = append(files, &entities.LayoutFile{
			RunPK:        runPK,
			FileID:       entry.ID,
			RelativePath: path,
			DirectoryID:  entry.ParentDirectoryID,
			Filename:     entry.Name,
			Extension:    entry.Extension,
			Language:     entry.Language,
			Category:     entry.Classification,
			SizeBytes:    entry.SizeBytes,
			LineCount:    entry.LineCount,
			IsBinary:     entry.IsBinary,
		})
	}
	return files
}

func (a *LayoutAdapter) mapDirectories(p *Pipeline, runPK int64, entries map[string]layoutDirEntry) []*entities.LayoutDirectory {
	seen := newDedupSet[string](a.Name(), p.logger)
	directories := make([]*entities.LayoutDirectory, 0, len(entries))
	for key, entry := range entries {
		raw := entry.Path
		if raw == "" {
			raw = key
		}
		path := pathutil.NormalizeDirPath(raw)
		if !seen.claim(entry.ID, path) {
			continue
		}
		directories = append(directories, &entities.LayoutDirectory{
			RunPK:          runPK,
			DirectoryID:    entry.ID,
			RelativePath:   path,
			ParentID:       entry.ParentDirectoryID,
			Depth:          entry.Depth,
			FileCount:      entry.RecursiveFileCount,
			TotalSizeBytes: entry.RecursiveSizeBytes,
		})
	}
	return directories
}
