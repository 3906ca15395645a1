package entities

// DependenseeProject is one row in lz_dependensee_projects.
type DependenseeProject struct {
	RunPK                 int64
	ProjectPath           string
	ProjectName           string
	TargetFramework       *string
	ProjectReferenceCount int64
	PackageReferenceCount int64
}

// Validate implements Entity.
func (p *DependenseeProject) Validate() error {
	return firstError(
		requirePK(p.RunPK),
		requirePath("project_path", p.ProjectPath),
		requireString("project_name", p.ProjectName),
		nonNegInt("project_reference_count", p.ProjectReferenceCount),
		nonNegInt("package_reference_count", p.PackageReferenceCount),
	)
}

// DependenseeProjectReference is one row in lz_dependensee_project_refs.
type DependenseeProjectReference struct {
	RunPK             int64
	SourceProjectPath string
	TargetProjectPath string
}

// Validate implements Entity.
func (r *DependenseeProjectReference) Validate() error {
	return firstError(
		requirePK(r.RunPK),
		requirePath("source_project_path", r.SourceProjectPath),
		requirePath("target_project_path", r.TargetProjectPath),
	)
}

// DependenseePackageReference is one row in lz_dependensee_package_refs.
type DependenseePackageReference struct {
	RunPK          int64
	ProjectPath    string
	PackageName    string
	PackageVersion *string
}

// Validate implements Entity.
func (r *DependenseePackageReference) Validate() error {
	return firstError(
		requirePK(r.RunPK),
		requirePath("project_path", r.ProjectPath),
		requireString("package_name", r.PackageName),
	)
}
