// Package specfile is the file-system collaborator of the workflow core:
// it reads YAML (or JSON) specification files and feeds them to the schema
// parser, resolving parent references relative to each file's directory.
// The core itself never touches the file system.
package specfile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Load reads, parses, and validates a workflow specification file.
func Load(path string, opts ...Option) (*domain.Specification, error) {
	l := &loader{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve spec path: %w", err)
	}

	raw, err := readMapping(absPath)
	if err != nil {
		return nil, err
	}

	parser := schema.NewParser(
		schema.WithResolver(l.resolverFor(filepath.Dir(absPath))),
		schema.WithLogger(l.logger),
	)
	return parser.Parse(raw)
}

type loader struct {
	logger *slog.Logger
}

// Option configures loading.
type Option func(*loader)

// WithLogger sets the logger used for reference-merge diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) { l.logger = logger }
}

// resolverFor builds a schema.Resolver for the loaded spec. Relative
// reference paths resolve against the directory of the file declaring
// them, falling back to rootDir for the root spec, so
// `reference: ../base.yaml` behaves like an include at every level of
// the chain.
func (l *loader) resolverFor(rootDir string) schema.Resolver {
	return func(refPath, fromPath string) (map[string]any, string, error) {
		baseDir := rootDir
		if fromPath != "" {
			baseDir = filepath.Dir(fromPath)
		}
		resolved := refPath
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(baseDir, refPath)
		}
		absPath, err := filepath.Abs(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("resolve reference path: %w", err)
		}
		raw, err := readMapping(absPath)
		if err != nil {
			return nil, "", err
		}
		return raw, absPath, nil
	}
}

func readMapping(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		return raw, nil
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return raw, nil
}
