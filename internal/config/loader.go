package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

type Source struct {
	Kind   SourceKind
	Name   string
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML path -> last file that set it
	Files   []string          // loaded files, in merge order
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "floatwm", "config.yaml"), nil
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load plus per-key file positions for `config explain`.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes. A missing file yields defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	raw := RawConfig{}
	sources := map[string]Source{}
	var files []string

	exists, err := pathExists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		l := &fileLoader{seen: make(map[string]struct{})}
		merged, err := l.load(path, nil)
		if err != nil {
			return nil, err
		}
		raw = merged
		sources = l.sources
		files = l.files
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err != nil {
		return nil, attachSourceContext(err, sources)
	}
	if err := cfg.Validate(); err != nil {
		return nil, attachSourceContext(err, sources)
	}

	return &LoadResult{
		Config:  cfg,
		Sources: sources,
		Files:   files,
	}, nil
}

type fileLoader struct {
	seen    map[string]struct{}
	sources map[string]Source
	files   []string
}

// load merges includes first and the file itself last so the including file
// wins.
func (l *fileLoader) load(path string, stack []string) (RawConfig, error) {
	canon, err := canonicalPath(path)
	if err != nil {
		return RawConfig{}, err
	}
	for _, existing := range stack {
		if existing == canon {
			return RawConfig{}, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(stack, " -> "), canon)
		}
	}
	if _, ok := l.seen[canon]; ok {
		return RawConfig{}, nil
	}
	l.seen[canon] = struct{}{}

	data, err := os.ReadFile(canon)
	if err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to read: %w", canon, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to parse yaml: %w", canon, err)
	}
	var raw RawConfig
	if err := decodeStrictYAML(data, &raw); err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", canon, err)
	}

	merged := RawConfig{}
	for _, inc := range raw.Include {
		paths, err := expandInclude(canon, inc)
		if err != nil {
			src := findSource(&doc, canon, "include")
			return RawConfig{}, fmt.Errorf("%s:%d:%d: include %q: %w", canon, src.Line, src.Column, inc, err)
		}
		for _, p := range paths {
			child, err := l.load(p, append(stack, canon))
			if err != nil {
				return RawConfig{}, err
			}
			merged = merged.merge(child)
		}
	}

	merged = merged.merge(raw)
	if l.sources == nil {
		l.sources = map[string]Source{}
	}
	for key, src := range collectSources(&doc, canon) {
		l.sources[key] = src
	}
	l.files = append(l.files, canon)
	return merged, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}

// expandInclude resolves an include relative to the including file. A
// directory expands to its *.yaml/*.yml files in lexical order.
func expandInclude(baseFile string, include string) ([]string, error) {
	if include == "" {
		return nil, fmt.Errorf("path is empty")
	}
	if include == "~" || strings.HasPrefix(include, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		include = filepath.Join(home, strings.TrimPrefix(include, "~"))
	}
	if !filepath.IsAbs(include) {
		include = filepath.Join(filepath.Dir(baseFile), include)
	}

	info, err := os.Stat(include)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{include}, nil
	}

	entries, err := os.ReadDir(include)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(include, ent.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func rootMapping(doc *yaml.Node) *yaml.Node {
	if doc == nil {
		return nil
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

func collectSources(doc *yaml.Node, file string) map[string]Source {
	out := make(map[string]Source)
	collectSourcesRec(rootMapping(doc), file, "", out)
	return out
}

func collectSourcesRec(node *yaml.Node, file string, prefix string, out map[string]Source) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		out[path] = Source{Kind: SourceFile, File: file, Line: val.Line, Column: val.Column}
		collectSourcesRec(val, file, path, out)
	}
}

func findSource(doc *yaml.Node, file string, key string) Source {
	if src, ok := collectSources(doc, file)[key]; ok {
		return src
	}
	return Source{Kind: SourceFile, File: file}
}

func attachSourceContext(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr == nil || verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return err
}
