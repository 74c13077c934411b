package models

import "time"

// ArtifactKind names the backend that physically holds an artifact's bytes.
type ArtifactKind string

const (
	ArtifactEmbedded ArtifactKind = "embedded"
	ArtifactLocal    ArtifactKind = "local"
	ArtifactRemote   ArtifactKind = "remote"
)

func (k ArtifactKind) Valid() bool {
	switch k {
	case ArtifactEmbedded, ArtifactLocal, ArtifactRemote:
		return true
	}
	return false
}

// Artifact is an uploaded file attached to an owning record.
// Exactly one of Data (embedded), Location as a relative path (local) or
// Location as an absolute URL (remote) is populated, and Kind says which.
type Artifact struct {
	ID         int64        `json:"id"`
	OwnerType  string       `json:"owner_type"`
	OwnerID    int64        `json:"owner_id"`
	Category   string       `json:"category"`
	Kind       ArtifactKind `json:"kind"`
	Filename   string       `json:"filename"`
	MimeType   string       `json:"mime_type"`
	Size       int64        `json:"size"`
	Data       []byte       `json:"-"`
	Location   string       `json:"location,omitempty"`
	ProviderID string       `json:"provider_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Descriptor is the client-facing summary of an artifact reference.
type Descriptor struct {
	Kind     ArtifactKind `json:"kind"`
	Filename string       `json:"filename"`
	MimeType string       `json:"mime_type"`
	Size     int64        `json:"size"`
	URL      string       `json:"url,omitempty"`
}

func (a *Artifact) Descriptor() Descriptor {
	d := Descriptor{Kind: a.Kind, Filename: a.Filename, MimeType: a.MimeType, Size: a.Size}
	if a.Kind == ArtifactRemote {
		d.URL = a.Location
	}
	return d
}
