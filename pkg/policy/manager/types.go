package manager

import (
	"context"
	"time"

	"mercator-hq/irvm/pkg/ir"
)

// PolicyManager is the main interface for policy management operations.
// It coordinates policy loading, validation, registration, and hot-reload.
type PolicyManager interface {
	// LoadPolicies loads all policies from the configured source.
	// Returns an error if loading fails.
	LoadPolicies() error

	// ReloadPolicies reloads all policies from the configured source.
	// This is an atomic operation - all policies are validated before any
	// are applied. If validation fails, the previous policies remain active.
	ReloadPolicies() error

	// GetPolicy retrieves a single policy by registry name.
	GetPolicy(name string) (*ir.Policy, error)

	// GetAllPolicies retrieves all loaded policies sorted by name.
	// The returned slice is a snapshot and will not be modified by the manager.
	GetAllPolicies() []*LoadedPolicy

	// GetPolicyVersion returns the version of the currently loaded policies,
	// a digest over every registered policy's content digest.
	GetPolicyVersion() string

	// Watch starts watching the policy source for changes.
	// This is a blocking operation that runs until the context is cancelled.
	Watch(ctx context.Context) error

	// Close performs cleanup and releases resources.
	Close() error
}

// LoadedPolicy is a decoded policy together with where it came from.
type LoadedPolicy struct {
	// Name is the registry name, derived from the file name without extension
	Name string

	// FilePath is the path the policy was read from
	FilePath string

	// Digest is the content digest of the decoded policy (ir.Digest)
	Digest string

	// LoadedAt is when the policy was decoded
	LoadedAt time.Time

	// Policy is the decoded policy
	Policy *ir.Policy
}

// PolicyMetadata contains summary information about a registered policy.
type PolicyMetadata struct {
	// Name is the registry name
	Name string

	// FilePath is the path to the policy file
	FilePath string

	// Digest is the content digest
	Digest string

	// LoadedAt is the load timestamp
	LoadedAt time.Time

	// Plans lists the plan names in declaration order
	Plans []string

	// FuncCount is the number of functions
	FuncCount int

	// StmtCount is the total number of statements across plans and functions
	StmtCount int
}

// LoadResult contains the results of a policy loading operation.
type LoadResult struct {
	// Policies is the list of successfully loaded policies
	Policies []*LoadedPolicy

	// Errors is the list of errors encountered during loading
	Errors []error

	// LoadTime is the duration of the load operation
	LoadTime time.Duration

	// Version is the registry version after the load
	Version string

	// FileCount is the number of files processed
	FileCount int
}

// ReloadEvent represents a file system change event that triggers a reload.
type ReloadEvent struct {
	// Type is the event type (create, modify, delete)
	Type ReloadEventType

	// FilePath is the path to the file that changed
	FilePath string

	// Timestamp is when the event occurred
	Timestamp time.Time
}

// ReloadEventType represents the type of file system change.
type ReloadEventType int

const (
	// ReloadEventCreate indicates a new file was created
	ReloadEventCreate ReloadEventType = iota

	// ReloadEventModify indicates an existing file was modified
	ReloadEventModify

	// ReloadEventDelete indicates a file was deleted
	ReloadEventDelete

	// ReloadEventScheduled indicates a reload triggered by the reload schedule
	ReloadEventScheduled
)

// String returns a string representation of the event type.
func (t ReloadEventType) String() string {
	switch t {
	case ReloadEventCreate:
		return "create"
	case ReloadEventModify:
		return "modify"
	case ReloadEventDelete:
		return "delete"
	case ReloadEventScheduled:
		return "scheduled"
	default:
		return "unknown"
	}
}

// ReloadCallback is invoked after every reload attempt with the triggering
// event and the reload error (nil on success).
type ReloadCallback func(event ReloadEvent, err error)

// PolicyLoaderConfig contains configuration for the policy loader.
type PolicyLoaderConfig struct {
	// MaxFileSize is the maximum file size in bytes (default: 10MB)
	MaxFileSize int64

	// AllowedExtensions is the list of allowed file extensions
	// (default: [".json", ".yaml", ".yml"])
	AllowedExtensions []string

	// FollowSymlinks controls whether to follow symbolic links (default: true)
	FollowSymlinks bool

	// SkipHidden controls whether to skip hidden files/directories (default: true)
	SkipHidden bool

	// Schema enables the JSON Schema pass before decoding (default: true)
	Schema bool
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *PolicyLoaderConfig {
	return &PolicyLoaderConfig{
		MaxFileSize:       10 * 1024 * 1024, // 10MB
		AllowedExtensions: []string{".json", ".yaml", ".yml"},
		FollowSymlinks:    true,
		SkipHidden:        true,
		Schema:            true,
	}
}
