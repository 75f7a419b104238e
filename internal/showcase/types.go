package showcase

import "time"

// Placeholder values stored when a project does not provide a field.
const (
	NoDescription = "No description found"
	NoOneliner    = "No oneliner"
	NoLogoURL     = "No logo URL"
	DefaultTrack  = "Unspecified"
)

// ProjectSource identifies one project and its candidate branches in
// host-reported order, highest priority first.
type ProjectSource struct {
	ProjectID int      `json:"project_id"`
	Branches  []string `json:"branches"`
}

// ProjectRecord is the denormalized row persisted per project.
type ProjectRecord struct {
	ProjectID   int       `json:"project_id" db:"project_id"`
	ProjectName string    `json:"project_name" db:"project_name"`
	Slug        string    `json:"slug" db:"slug"`
	Oneliner    string    `json:"oneliner" db:"oneliner"`
	Description string    `json:"description" db:"description"`
	LogoURL     string    `json:"logo_url" db:"logo_url"`
	RepoURL     string    `json:"repo_url" db:"repo_url"`
	AppURL      string    `json:"app_url" db:"app_url"`
	DemoURL     string    `json:"demo_url" db:"demo_url"`
	Track       string    `json:"track" db:"track"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProjectJob carries the external context needed to build one record.
type ProjectJob struct {
	ProjectID        int
	VideoURL         string
	TimestampSeconds int
	Track            string
}

// SyncedEvent is published after a record has been persisted.
type SyncedEvent struct {
	RunID       string    `json:"run_id"`
	ProjectID   int       `json:"project_id"`
	Slug        string    `json:"slug"`
	SnapshotURI string    `json:"snapshot_uri,omitempty"`
	ContentHash string    `json:"content_hash"`
	SyncedAt    time.Time `json:"synced_at"`
}
