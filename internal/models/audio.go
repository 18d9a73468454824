package models

// AudioArtifact is the synthesized episode audio before it is persisted.
// Ownership of Bytes transfers to the artifact store on a successful
// Store call.
type AudioArtifact struct {
	Bytes       []byte
	DurationSec int
	ContentType string
}

// StoredAudio locates a persisted audio artifact.
type StoredAudio struct {
	Path      string
	URL       string
	SizeBytes int64
}
