// Package driver implements the ambient batch/CLI surface a real rewriter
// ships with (§4.8): a YAML manifest of named transform targets, and
// git-scoped incremental file selection. Grounded on the teacher's
// pkg/driver manifest + lockfile machinery and cmd/able CLI, generalized
// from Able's package.yml (targets as build artifacts) to comehere.yml
// (targets as source-glob/output-directory pairs).
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest represents the parsed contents of comehere.yml.
type Manifest struct {
	Path        string
	Targets     map[string]*TargetSpec
	TargetOrder []string

	targetEntries []manifestTargetEntry
}

// TargetSpec describes one named transform target: the source files it
// covers and where their rewritten output goes.
type TargetSpec struct {
	Name         string // sanitized
	OriginalName string
	Sources      []string // glob patterns, resolved relative to the manifest's directory
	OutDir       string
}

type manifestTargetEntry struct {
	sanitized string
	spec      *TargetSpec
}

// ValidationError aggregates every manifest validation failure found,
// rather than failing on the first one (§4.8).
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses comehere.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	var errs ValidationError

	seen := make(map[string]string, len(m.targetEntries))
	for _, entry := range m.targetEntries {
		target := entry.spec
		if target == nil {
			continue
		}
		if target.OriginalName == "" {
			errs.Issues = append(errs.Issues, "targets must not use empty keys")
			continue
		}
		if other, exists := seen[entry.sanitized]; exists {
			errs.Issues = append(errs.Issues, fmt.Sprintf("targets %q and %q collide after sanitization", other, target.OriginalName))
		} else {
			seen[entry.sanitized] = target.OriginalName
		}
		if len(target.Sources) == 0 {
			errs.Issues = append(errs.Issues, fmt.Sprintf("target %q must list at least one source glob", target.OriginalName))
		}
		if target.OutDir == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("target %q must specify an output directory", target.OriginalName))
		}
	}

	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// FindTarget looks up a target by sanitized or original name, ignoring case.
func (m *Manifest) FindTarget(name string) (*TargetSpec, bool) {
	if m == nil {
		return nil, false
	}
	key := sanitizeSegment(strings.TrimSpace(name))
	if key != "" {
		if target, ok := m.Targets[key]; ok && target != nil {
			return target, true
		}
	}
	for _, entry := range m.targetEntries {
		if entry.spec != nil && (strings.EqualFold(entry.spec.OriginalName, strings.TrimSpace(name)) || strings.EqualFold(entry.sanitized, key)) {
			return entry.spec, true
		}
	}
	return nil, false
}

// ResolvedSources expands a target's glob patterns relative to the
// manifest's own directory into a sorted, deduplicated file list.
func (m *Manifest) ResolvedSources(target *TargetSpec) ([]string, error) {
	if m == nil || target == nil {
		return nil, fmt.Errorf("manifest: target required")
	}
	base := filepath.Dir(m.Path)
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range target.Sources {
		matches, err := filepath.Glob(filepath.Join(base, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("manifest: target %q: bad glob %q: %w", target.OriginalName, pattern, err)
		}
		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			out = append(out, match)
		}
	}
	sort.Strings(out)
	return out, nil
}

func sanitizeSegment(seg string) string {
	seg = strings.TrimSpace(seg)
	seg = strings.ReplaceAll(seg, "-", "_")
	return seg
}

type manifestFile struct {
	Targets targetMap `yaml:"targets"`
}

type targetYAML struct {
	Sources stringList `yaml:"sources"`
	OutDir  string     `yaml:"out_dir"`
}

type targetMap struct {
	items []targetMapEntry
}

type targetMapEntry struct {
	name string
	spec *targetYAML
}

func (tm *targetMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		tm.items = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: targets must be a mapping")
	}
	items := make([]targetMapEntry, 0, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valueNode := value.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: targets must not use empty keys")
		}
		entry := new(targetYAML)
		if err := valueNode.Decode(entry); err != nil {
			return fmt.Errorf("manifest: target %q: %w", key, err)
		}
		items = append(items, targetMapEntry{name: key, spec: entry})
	}
	tm.items = items
	return nil
}

type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			str = strings.TrimSpace(str)
			if str == "" {
				continue
			}
			items = append(items, str)
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("manifest: expected string or sequence for list but found %s", value.ShortTag())
	}
}

func (mf manifestFile) toManifest(path string) *Manifest {
	n := len(mf.Targets.items)
	result := &Manifest{
		Path:          path,
		Targets:       make(map[string]*TargetSpec, n),
		TargetOrder:   make([]string, 0, n),
		targetEntries: make([]manifestTargetEntry, 0, n),
	}

	seenTargets := make(map[string]struct{}, n)
	for _, item := range mf.Targets.items {
		target := item.spec
		if target == nil {
			continue
		}
		original := strings.TrimSpace(item.name)
		if original == "" {
			continue
		}
		sanitized := sanitizeSegment(original)
		spec := &TargetSpec{
			Name:         sanitized,
			OriginalName: original,
			Sources:      append([]string{}, target.Sources...),
			OutDir:       strings.TrimSpace(target.OutDir),
		}
		if _, exists := result.Targets[sanitized]; !exists {
			result.Targets[sanitized] = spec
		}
		if _, exists := seenTargets[sanitized]; !exists {
			result.TargetOrder = append(result.TargetOrder, sanitized)
			seenTargets[sanitized] = struct{}{}
		}
		result.targetEntries = append(result.targetEntries, manifestTargetEntry{sanitized: sanitized, spec: spec})
	}
	return result
}
