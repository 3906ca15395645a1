package entities

// LayoutFile is one catalog entry in lz_layout_files. Every file-scoped
// fact row resolves its file_id and directory_id through this catalog.
type LayoutFile struct {
	RunPK        int64
	FileID       string
	RelativePath string
	DirectoryID  string
	Filename     string
	Extension    *string
	Language     *string
	Category     *string
	SizeBytes    *int64
	LineCount    *int64
	IsBinary     *bool
}

// Validate implements Entity.
func (f *LayoutFile) Validate() error {
	return firstError(
		requirePK(f.RunPK),
		requireIdent("file_id", f.FileID),
		requirePath("relative_path", f.RelativePath),
		requireIdent("directory_id", f.DirectoryID),
		nonNegIntPtr("size_bytes", f.SizeBytes),
		nonNegIntPtr("line_count", f.LineCount),
	)
}

// LayoutDirectory is one catalog entry in lz_layout_directories.
type LayoutDirectory struct {
	RunPK          int64
	DirectoryID    string
	RelativePath   string
	ParentID       *string
	Depth          int64
	FileCount      *int64
	TotalSizeBytes *int64
}

// Validate implements Entity.
func (d *LayoutDirectory) Validate() error {
	return firstError(
		requirePK(d.RunPK),
		requireIdent("directory_id", d.DirectoryID),
		requirePath("relative_path", d.RelativePath),
		nonNegInt("depth", d.Depth),
		nonNegIntPtr("file_count", d.FileCount),
		nonNegIntPtr("total_size_bytes", d.TotalSizeBytes),
	)
}
