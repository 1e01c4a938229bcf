// Package git wraps the git binary for the operations commitwise needs:
// locating the repository, reading staged changes and committing.
package git

// StagedFile is one file in the index that differs from HEAD.
type StagedFile struct {
	Path string

	// OldPath is set for renames.
	OldPath string

	// Status is one of the Status constants.
	Status string

	Additions int
	Deletions int
	IsBinary  bool
}

// StagedChanges is everything that would go into the next commit.
type StagedChanges struct {
	Files []StagedFile
	Stats DiffStats

	// Patch is the full unified diff of the index against HEAD.
	Patch string
}

// Empty reports whether nothing is staged.
func (c *StagedChanges) Empty() bool {
	return len(c.Files) == 0
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	FilesChanged int
	Additions    int
	Deletions    int
}

// File status values.
const (
	StatusAdded    = "added"
	StatusModified = "modified"
	StatusDeleted  = "deleted"
	StatusRenamed  = "renamed"
)
