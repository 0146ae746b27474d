package storage

import "fmt"

// Backend names accepted by Open.
const (
	BackendS3    = "s3"
	BackendLocal = "local"
)

// Config selects and configures a storage backend.
type Config struct {
	Backend  string
	S3       S3Config
	LocalDir string
}

// Open creates the Store named by cfg.Backend.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendS3, "":
		return NewS3(cfg.S3)
	case BackendLocal:
		return NewLocal(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
