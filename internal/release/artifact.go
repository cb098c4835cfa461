package release

import "time"

// Artifact is what the publish stage durably records for a release.
type Artifact struct {
	Name        string
	Version     string
	BoundCommit string
	Notes       string
	Channel     string
}

// Record is the read-back view of a published artifact.
type Record struct {
	Name        string
	Version     string
	BoundCommit string
	Notes       string
	PublishedAt time.Time
}
