// Package templates provides the seed configurations workspaces are created from.
//
// A template bundles the initial file set, the protected entry file, the
// declared dependencies, the runtime preset and the preview options. The
// built-in "react" template is used when no template is configured; others
// are loaded from a YAML or TOML file, or from a directory on disk where
// every regular file becomes a workspace file and an optional sandbox.yaml
// supplies the metadata.
//
// The package also exports a file set as an archive (zip, tar.gz, tar.zst).
package templates
