package templates

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// DefaultName is the name of the built-in template
const DefaultName = "react"

var (
	ErrInvalidTemplate   = errors.New("invalid template")
	ErrUnsupportedFormat = errors.New("unsupported template format")
)

// Template is the seed of a workspace
type Template struct {
	Name         string                  `json:"name" yaml:"name" toml:"name"`
	Environment  types.EnvironmentPreset `json:"environment" yaml:"environment" toml:"environment"`
	Entry        string                  `json:"entry" yaml:"entry" toml:"entry"`
	Files        map[string]string       `json:"files" yaml:"files" toml:"files"`
	Dependencies map[string]string       `json:"dependencies" yaml:"dependencies" toml:"dependencies"`
	Options      types.Options           `json:"options" yaml:"options" toml:"options"`
}

const appJS = `const styles = require('./styles.css');

function App() {
  const root = document.getElementById('root');

  const title = document.createElement('h1');
  title.textContent = 'Hello Sandpack!';
  root.appendChild(title);

  let count = 0;
  const button = document.createElement('button');
  button.textContent = 'Count: ' + count;
  button.addEventListener('click', function () {
    count++;
    button.textContent = 'Count: ' + count;
  });
  root.appendChild(button);

  console.log('App rendered with ' + styles.length + ' bytes of css');
  return { count: count };
}

module.exports = App();
`

const stylesCSS = `body {
  font-family: sans-serif;
  -webkit-font-smoothing: auto;
  -moz-font-smoothing: auto;
  -moz-osx-font-smoothing: grayscale;
  font-smoothing: auto;
  text-rendering: optimizeLegibility;
  font-smooth: always;
  -webkit-tap-highlight-color: transparent;
  -webkit-touch-callout: none;
}

h1 {
  font-size: 1.5rem;
}
`

// Default returns the built-in react template
func Default() Template {
	options := types.DefaultOptions()
	options.Classes = types.ClassNames{
		Wrapper:   "custom-wrapper",
		Layout:    "custom-layout",
		TabButton: "custom-tab",
	}

	return Template{
		Name:        DefaultName,
		Environment: types.EnvCreateReactApp,
		Entry:       "/App.js",
		Files: map[string]string{
			"/App.js":     appJS,
			"/styles.css": stylesCSS,
		},
		Dependencies: map[string]string{
			"react":            "^18.0.0",
			"react-dom":        "^18.0.0",
			"@types/react":     "^18.0.0",
			"@types/react-dom": "^18.0.0",
		},
		Options: options,
	}
}

// Validate normalizes paths in place and checks that the entry file is part of the file set
func (t *Template) Validate() error {
	if t.Environment == "" {
		t.Environment = types.EnvCreateReactApp
	}
	if !t.Environment.Valid() {
		return fmt.Errorf("%w: unknown environment %q", ErrInvalidTemplate, t.Environment)
	}
	if len(t.Files) == 0 {
		return fmt.Errorf("%w: no files", ErrInvalidTemplate)
	}

	entry, err := workspace.NormalizePath(t.Entry)
	if err != nil {
		return fmt.Errorf("%w: entry: %v", ErrInvalidTemplate, err)
	}

	files := make(map[string]string, len(t.Files))
	for p, content := range t.Files {
		np, err := workspace.NormalizePath(p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
		files[np] = content
	}
	if _, ok := files[entry]; !ok {
		return fmt.Errorf("%w: entry file %s is not part of the file set", ErrInvalidTemplate, entry)
	}

	t.Entry = entry
	t.Files = files
	t.Options = t.Options.WithDefaults()
	return nil
}

// Clone returns a deep copy of t
func (t Template) Clone() Template {
	c := t
	c.Files = copyMap(t.Files)
	c.Dependencies = copyMap(t.Dependencies)
	return c
}

// WorkspaceConfig converts t into a workspace configuration
func (t Template) WorkspaceConfig(consoleLimit int) workspace.Config {
	return workspace.Config{
		Name:         t.Name,
		Entry:        t.Entry,
		Files:        copyMap(t.Files),
		Dependencies: copyMap(t.Dependencies),
		Environment:  t.Environment,
		Options:      t.Options,
		ConsoleLimit: consoleLimit,
	}
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
