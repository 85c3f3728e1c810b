package manager

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/ir/validator"
)

// PolicyValidator checks a decoded policy. Both *validator.Validator and
// *validator.SemanticValidator satisfy it.
type PolicyValidator interface {
	Validate(policy *ir.Policy) error
}

// PolicyLoader handles loading policies from the file system.
// It supports single files and directory structures with validation.
type PolicyLoader struct {
	config    *PolicyLoaderConfig
	schema    *validator.SchemaValidator
	validator PolicyValidator
}

// NewPolicyLoader creates a new policy loader with the given configuration.
// A nil validator skips the semantic pass.
func NewPolicyLoader(config *PolicyLoaderConfig, v PolicyValidator) (*PolicyLoader, error) {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	l := &PolicyLoader{
		config:    config,
		validator: v,
	}
	if config.Schema {
		schema, err := validator.NewSchemaValidator()
		if err != nil {
			return nil, fmt.Errorf("failed to create schema validator: %w", err)
		}
		l.schema = schema
	}
	return l, nil
}

// PolicyName derives the registry name of a policy file: its base name
// without extension.
func PolicyName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadFromFile loads a single policy file from the given path.
// It performs file size validation, UTF-8 validation, decoding and
// validation.
func (l *PolicyLoader) LoadFromFile(path string) (*LoadedPolicy, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{
				FilePath: path,
				Message:  "file not found",
				Cause:    err,
			}
		}
		if os.IsPermission(err) {
			return nil, &LoadError{
				FilePath: path,
				Message:  "permission denied",
				Cause:    err,
			}
		}
		return nil, &LoadError{
			FilePath: path,
			Message:  "failed to access file",
			Cause:    err,
		}
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, &LoadError{
			FilePath: path,
			Message:  "not a regular file",
		}
	}

	if l.config.MaxFileSize > 0 && fileInfo.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", fileInfo.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			FilePath: path,
			Message:  "failed to read file",
			Cause:    err,
		}
	}

	return l.LoadBytes(path, data)
}

// LoadBytes decodes and validates an in-memory document. path is used for
// the policy name, the format and error reporting.
func (l *PolicyLoader) LoadBytes(path string, data []byte) (*LoadedPolicy, error) {
	if !utf8.Valid(data) {
		return nil, &LoadError{
			FilePath: path,
			Message:  "file contains invalid UTF-8 encoding",
		}
	}

	format, ok := ir.FormatFromPath(path)
	if !ok {
		format = ir.FormatJSON
	}

	name := PolicyName(path)

	if l.schema != nil {
		// The schema pass works on JSON; YAML documents are converted once
		// and decoded from the converted form.
		if format == ir.FormatYAML {
			converted, err := ir.YAMLToJSON(data)
			if err != nil {
				return nil, &ParseError{
					FilePath: path,
					Format:   string(ir.FormatYAML),
					Message:  "YAML decoding failed",
					Cause:    err,
				}
			}
			data = converted
			format = ir.FormatJSON
		}
		if err := l.schema.Validate(data); err != nil {
			return nil, &ValidationError{
				PolicyName: name,
				FilePath:   path,
				Message:    "document does not match the IR schema",
				Cause:      err,
			}
		}
	}

	policy, err := ir.Parse(data, format)
	if err != nil {
		return nil, &ParseError{
			FilePath: path,
			Format:   string(format),
			Message:  "IR decoding failed",
			Cause:    err,
		}
	}

	if l.validator != nil {
		if err := l.validator.Validate(policy); err != nil {
			return nil, &ValidationError{
				PolicyName: name,
				FilePath:   path,
				Message:    "semantic validation failed",
				Cause:      err,
			}
		}
	}

	digest, err := ir.Digest(policy)
	if err != nil {
		return nil, &LoadError{
			FilePath: path,
			Message:  "failed to compute policy digest",
			Cause:    err,
		}
	}

	return &LoadedPolicy{
		Name:     name,
		FilePath: path,
		Digest:   digest,
		LoadedAt: time.Now(),
		Policy:   policy,
	}, nil
}

// LoadFromDirectory loads all policy files from the given directory recursively.
// It returns a list of successfully loaded policies and any errors encountered.
func (l *PolicyLoader) LoadFromDirectory(dir string) ([]*LoadedPolicy, error) {
	fileInfo, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{
				FilePath: dir,
				Message:  "directory not found",
				Cause:    err,
			}
		}
		return nil, &LoadError{
			FilePath: dir,
			Message:  "failed to access directory",
			Cause:    err,
		}
	}

	if !fileInfo.IsDir() {
		return nil, &LoadError{
			FilePath: dir,
			Message:  "not a directory",
		}
	}

	policyFiles, err := l.collectPolicyFiles(dir)
	if err != nil {
		return nil, err
	}

	if len(policyFiles) == 0 {
		return nil, &LoadError{
			FilePath: dir,
			Message:  "no policy files found in directory",
		}
	}

	var policies []*LoadedPolicy
	errList := &ErrorList{}
	seen := make(map[string]string)

	for _, filePath := range policyFiles {
		loaded, err := l.LoadFromFile(filePath)
		if err != nil {
			errList.Add(err)
			continue
		}
		if prev, dup := seen[loaded.Name]; dup {
			errList.Add(&RegistryError{
				PolicyName: loaded.Name,
				Operation:  "load",
				Message:    fmt.Sprintf("name collides with %s", prev),
			})
			continue
		}
		seen[loaded.Name] = filePath
		policies = append(policies, loaded)
	}

	if len(policies) == 0 && errList.HasErrors() {
		return nil, errList
	}

	if errList.HasErrors() {
		return policies, errList
	}

	return policies, nil
}

// collectPolicyFiles collects all policy file paths in the given directory.
// It filters by extension and skips hidden files based on configuration.
func (l *PolicyLoader) collectPolicyFiles(dir string) ([]string, error) {
	var policyFiles []string
	visited := make(map[string]bool)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if l.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !l.config.FollowSymlinks {
				return nil
			}

			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				return &LoadError{
					FilePath: path,
					Message:  "failed to resolve symlink",
					Cause:    err,
				}
			}

			if visited[realPath] {
				return &LoadError{
					FilePath: path,
					Message:  "symlink loop detected",
				}
			}
			visited[realPath] = true

			if !l.hasValidExtension(realPath) {
				return nil
			}

			policyFiles = append(policyFiles, path)
			return nil
		}

		if !l.hasValidExtension(path) {
			return nil
		}

		policyFiles = append(policyFiles, path)
		return nil
	})

	if err != nil {
		return nil, &LoadError{
			FilePath: dir,
			Message:  "failed to walk directory",
			Cause:    err,
		}
	}

	return policyFiles, nil
}

// hasValidExtension checks if the file has a valid policy file extension.
func (l *PolicyLoader) hasValidExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, validExt := range l.config.AllowedExtensions {
		if ext == strings.ToLower(validExt) {
			return true
		}
	}
	return false
}

// IsDirectory checks if the given path is a directory.
func (l *PolicyLoader) IsDirectory(path string) (bool, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, &LoadError{
				FilePath: path,
				Message:  "path does not exist",
				Cause:    err,
			}
		}
		return false, &LoadError{
			FilePath: path,
			Message:  "failed to access path",
			Cause:    err,
		}
	}

	return fileInfo.IsDir(), nil
}
