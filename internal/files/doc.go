// Package files discovers pipeline plans and source files on disk and
// checks that a source path can be loaded.
//
//	discovery := files.NewDiscovery(baseDir)
//	plans, err := discovery.FindPlans("plans")
//
// Relative directories are resolved against the base directory. Hidden
// files and Office lock files (~$book.xlsx) are skipped, and results are
// sorted by name so batch runs are reproducible.
package files
