package templates

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// MetadataFile is the optional template description inside a template directory
const MetadataFile = "sandbox.yaml"

// MaxFileBytes bounds a single file read from a template directory
const MaxFileBytes = 1 << 20

// Format is a template serialisation format
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// entryCandidates are tried in order when a directory has no metadata
var entryCandidates = []string{"/App.js", "/index.js", "/src/index.js", "/src/App.js", "/index.html"}

// FormatOf maps a file extension to its format
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Load resolves a template source. An empty source yields the built-in
// template; a directory is loaded with LoadDir and anything else with LoadFile.
func Load(source string) (Template, error) {
	if source == "" || source == DefaultName {
		return Default(), nil
	}

	info, err := os.Stat(source)
	if err != nil {
		return Template{}, fmt.Errorf("load template: %w", err)
	}
	if info.IsDir() {
		return LoadDir(source)
	}
	return LoadFile(source)
}

// LoadFile reads a YAML or TOML template
func LoadFile(path string) (Template, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Template{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("load template: %w", err)
	}

	t, err := Parse(data, format)
	if err != nil {
		return Template{}, fmt.Errorf("%s: %w", path, err)
	}
	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return t, nil
}

// Parse decodes and validates a template. Absent options keep their defaults.
func Parse(data []byte, format Format) (Template, error) {
	t := Template{Options: types.DefaultOptions()}

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &t)
	case FormatTOML:
		err = toml.Unmarshal(data, &t)
	default:
		return Template{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Template{}, fmt.Errorf("%w: %s parse error: %v", ErrInvalidTemplate, format, err)
	}

	if err := t.Validate(); err != nil {
		return Template{}, err
	}
	return t, nil
}

// LoadDir builds a template from a directory tree. Hidden entries,
// node_modules, binary files and files over MaxFileBytes are skipped.
func LoadDir(dir string) (Template, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return Template{}, fmt.Errorf("load template: %w", err)
	}

	var (
		mu       sync.Mutex
		files    = make(map[string]string)
		metadata []byte
	)

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") || name == "node_modules" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > MaxFileBytes {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = "/" + filepath.ToSlash(rel)

		mu.Lock()
		defer mu.Unlock()
		if rel == "/"+MetadataFile {
			metadata = data
			return nil
		}
		if utf8.Valid(data) {
			files[rel] = string(data)
		}
		return nil
	})
	if err != nil {
		return Template{}, fmt.Errorf("walk template %s: %w", dir, err)
	}

	t := Template{Name: filepath.Base(root), Options: types.DefaultOptions()}
	if metadata != nil {
		if err := yaml.Unmarshal(metadata, &t); err != nil {
			return Template{}, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, MetadataFile, err)
		}
	}

	// files on disk win over inline metadata files
	if t.Files == nil {
		t.Files = make(map[string]string, len(files))
	}
	for p, content := range files {
		t.Files[p] = content
	}

	if t.Entry == "" {
		t.Entry = detectEntry(t.Files)
		if t.Environment == "" && strings.HasSuffix(t.Entry, ".html") {
			t.Environment = types.EnvStatic
		}
	}

	if err := t.Validate(); err != nil {
		return Template{}, err
	}
	return t, nil
}

func detectEntry(files map[string]string) string {
	for _, candidate := range entryCandidates {
		if _, ok := files[candidate]; ok {
			return candidate
		}
	}
	return ""
}
