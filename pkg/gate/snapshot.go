// Package gate implements the per-load version gate: it stamps the current
// release version into durable storage, rebuilds or loads the cached
// site-metadata snapshot, records the last visit, and delegates worker
// registration.
package gate

import (
	"time"
)

// Contact is a named link to a messaging channel.
type Contact struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Phone is a named phone number.
type Phone struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Contacts holds the site's contact channels.
type Contacts struct {
	Telegram []Contact `json:"telegram"`
	WhatsApp Contact   `json:"whatsapp"`
	Phones   []Phone   `json:"phones"`

	// Location is a maps URL for the physical location.
	Location string `json:"location"`
}

// Branding holds the site's display identity.
type Branding struct {
	Name     string `json:"name"`
	Subtitle string `json:"subtitle"`
}

// SiteMeta is the source site metadata the snapshot is rebuilt from.
type SiteMeta struct {
	Contacts Contacts `json:"contacts"`
	Branding Branding `json:"branding"`
}

// Snapshot is the cached-data blob persisted under the data key. It is
// rebuilt whenever the stored version tag differs from the current release
// version, and loaded verbatim otherwise.
type Snapshot struct {
	Version   string   `json:"version"`
	Timestamp string   `json:"timestamp"`
	Contacts  Contacts `json:"contacts"`
	Branding  Branding `json:"branding"`
}

// NewSnapshot builds a snapshot for the given version from source metadata,
// stamped with the current time.
func NewSnapshot(version string, meta SiteMeta) *Snapshot {
	return &Snapshot{
		Version:   version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Contacts:  meta.Contacts,
		Branding:  meta.Branding,
	}
}
