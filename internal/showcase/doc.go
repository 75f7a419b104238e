// Package showcase defines the project record, the host layout, and the
// capabilities (source, store, archive, publisher) shared by the sync
// pipeline.
package showcase
