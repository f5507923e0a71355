package ota

import "fmt"

// Repository identifies where firmware files are published.
type Repository struct {
	Owner  string
	Name   string
	Branch string
}

// String returns owner/name@branch.
func (r Repository) String() string {
	return fmt.Sprintf("%s/%s@%s", r.Owner, r.Name, r.Branch)
}

// Manifest lists the files that make up the installed firmware.
type Manifest struct {
	Repository Repository
	// WorkingDir is the directory within the repository holding the files.
	WorkingDir string
	// Files are paths relative to WorkingDir and InstallDir.
	Files []string
	// InstallDir is where the running firmware lives on disk.
	InstallDir string
	// ChecksumsFile, when set, names a file in WorkingDir with
	// "sha256  name" lines that every fetched file must match.
	ChecksumsFile string
}
