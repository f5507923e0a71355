// Package ota checks for and applies firmware file updates.
//
// Checker is the cycle-facing side: it asks a Collaborator to bring the
// installed files in line with the repository and reports whether a restart
// is needed. RepoSync is the Collaborator used on the node. It downloads
// every listed file from a raw-content host, compares SHA-256 digests with
// the installed copies, and swaps changed files into place only after all of
// them have been fetched and verified.
package ota
