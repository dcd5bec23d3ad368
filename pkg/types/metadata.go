package types

// ServerMetadata describes the running vpsbridge server.
type ServerMetadata struct {
	Version string `json:"version"`
}
