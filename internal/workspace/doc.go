// Package workspace manages build workspace directories.
//
// A workspace holds per-build scratch state: clones made by remote source
// plugins and intermediate artifacts. Ephemeral workspaces are timestamped
// and removed after the build; persistent workspaces are reused across
// builds (dev server mode) so remote sources can update instead of reclone.
package workspace
