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

// DependenseeAdapter ingests .NET project dependency graphs: projects,
// project-to-project references, and NuGet package references. Reference
// counts are recomputed from the flattened lists rather than trusted from
// the payload.
type DependenseeAdapter struct {
	repo *repositories.DependenseeRepository
}

// NewDependenseeAdapter creates the dependensee adapter.
func NewDependenseeAdapter(session *database.Session) *DependenseeAdapter {
	return &DependenseeAdapter{repo: repositories.NewDependenseeRepository(session)}
}

var _ Adapter = &DependenseeAdapter{}

func (a *DependenseeAdapter) Name() string { return "dependensee" }

func (a *DependenseeAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{
		repositories.DependenseeProjectsTable,
		repositories.DependenseeProjectRefsTable,
		repositories.DependenseePackageRefsTable,
	}
}

func (a *DependenseeAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type dependenseePackageRef struct {
	Name    string  `json:"name"`
	Version *string `json:"version"`
}

type dependenseeProject struct {
	Path              string                  `json:"path"`
	Name              string                  `json:"name"`
	TargetFramework   *string                 `json:"target_framework"`
	ProjectReferences []string                `json:"project_references"`
	PackageReferences []dependenseePackageRef `json:"package_references"`
}

type dependenseePayload struct {
	Projects []dependenseeProject `json:"projects"`
}

func (a *DependenseeAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload dependenseePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode dependensee data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	seenProjects := newDedupSet[string](a.Name(), p.logger)
	type projectRefKey struct {
		source string
		target string
	}
	seenProjectRefs := newDedupSet[projectRefKey](a.Name(), p.logger)
	type packageRefKey struct {
		project string
		pkg     string
	}
	seenPackageRefs := newDedupSet[packageRefKey](a.Name(), p.logger)

	projects := make([]*entities.DependenseeProject, 0, len(payload.Projects))
	projectRefs := make([]*entities.DependenseeProjectReference, 0)
	packageRefs := make([]*entities.DependenseePackageReference, 0)
	for _, proj := range payload.Projects {
		path := pathutil.NormalizeFilePath(proj.Path)
		if !seenProjects.claim(path, fmt.Sprintf("project %s", path)) {
			continue
		}
		var projectRefCount, packageRefCount int64
		for _, target := range proj.ProjectReferences {
			targetPath := pathutil.NormalizeFilePath(target)
			key := projectRefKey{source: path, target: targetPath}
			if !seenProjectRefs.claim(key, fmt.Sprintf("project reference %s -> %s", path, targetPath)) {
				continue
			}
			projectRefs = append(projectRefs, &entities.DependenseeProjectReference{
				RunPK:             rc.RunPK,
				SourceProjectPath: path,
				TargetProjectPath: targetPath,
			})
			projectRefCount++
		}
		for _, pkg := range proj.PackageReferences {
			key := packageRefKey{project: path, pkg: pkg.Name}
			if !seenPackageRefs.claim(key, fmt.Sprintf("package %s in %s", pkg.Name, path)) {
				continue
			}
			packageRefs = append(packageRefs, &entities.DependenseePackageReference{
				RunPK:          rc.RunPK,
				ProjectPath:    path,
				PackageName:    pkg.Name,
				PackageVersion: pkg.Version,
			})
			packageRefCount++
		}
		projects = append(projects, &entities.DependenseeProject{
			RunPK:                 rc.RunPK,
			ProjectPath:           path,
			ProjectName:           proj.Name,
			TargetFramework:       proj.TargetFramework,
			ProjectReferenceCount: projectRefCount,
			PackageReferenceCount: packageRefCount,
		})
	}

	if err := a.repo.InsertProjects(ctx, tx, projects); err != nil {
		return err
	}
	if err := a.repo.InsertProjectReferences(ctx, tx, projectRefs); err != nil {
		return err
	}
	return a.repo.InsertPackageReferences(ctx, tx, packageRefs)
}

func (a *DependenseeAdapter) checkQuality(payload dependenseePayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, proj := range payload.Projects {
		path := pathutil.NormalizeFilePath(proj.Path)
		c.Checkf(pathutil.IsRepoRelative(path), "project[%d] path invalid: %s", i, proj.Path)
		c.NonEmpty(fmt.Sprintf("project[%d].name", i), proj.Name)
		for j, target := range proj.ProjectReferences {
			c.NonEmpty(fmt.Sprintf("project[%d].project_reference[%d]", i, j), target)
		}
		for j, pkg := range proj.PackageReferences {
			c.NonEmpty(fmt.Sprintf("project[%d].package_reference[%d].name", i, j), pkg.Name)
		}
	}
	return c.Err(p.logger)
}
