package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleResolution(t *testing.T) {
	rt := newTestRuntime(t)

	files := map[string]string{
		"/App.js": `
			var util = require('./lib/util');
			var config = require('./config.json');
			var pkg = require('./lib');
			var readme = require('/README.md');
			module.exports = {
				sum: util.add(1, 2),
				name: config.name,
				pkg: pkg.kind,
				readme: readme,
			};
		`,
		"/lib/util.js":    `exports.add = function (a, b) { return a + b }`,
		"/lib/index.js":   `module.exports = { kind: require('../shared/kind.js') }`,
		"/shared/kind.js": `module.exports = 'index'`,
		"/config.json":    `{"name": "sandpad"}`,
		"/README.md":      "# hello",
	}

	result, err := rt.Execute(context.Background(), Program{Entry: "/App.js", Files: files})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sum":3,"name":"sandpad","pkg":"index","readme":"# hello"}`, string(result.Value))
}

func TestModuleCache(t *testing.T) {
	rt := newTestRuntime(t)

	files := map[string]string{
		"/App.js":     `require('./counter'); require('./counter.js'); module.exports = require('./counter').n`,
		"/counter.js": `console.log('loaded'); exports.n = 1`,
	}

	result, err := rt.Execute(context.Background(), Program{Entry: "/App.js", Files: files})
	require.NoError(t, err)
	assert.Len(t, result.Console, 1)
	assert.Equal(t, "1", string(result.Value))
}

func TestModuleCycle(t *testing.T) {
	rt := newTestRuntime(t)

	files := map[string]string{
		"/App.js": `exports.ready = false; var b = require('./b'); exports.ready = true; module.exports.seen = b.seen`,
		"/b.js":   `exports.seen = require('./App.js').ready`,
	}

	result, err := rt.Execute(context.Background(), Program{Entry: "/App.js", Files: files})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ready":true,"seen":false}`, string(result.Value))
}

func TestModuleResolutionErrors(t *testing.T) {
	rt := newTestRuntime(t)

	tests := []struct {
		name   string
		source string
		deps   map[string]string
		want   string
	}{
		{
			name:   "bare specifier",
			source: `require('lodash')`,
			want:   `cannot resolve module "lodash"`,
		},
		{
			name:   "declared dependency",
			source: `require('react')`,
			deps:   map[string]string{"react": "^18.0.0"},
			want:   "declared dependency",
		},
		{
			name:   "missing relative file",
			source: `require('./nope')`,
			want:   `cannot resolve module "./nope" from /App.js`,
		},
		{
			name:   "bad json",
			source: `require('./data.json')`,
			want:   "parse /data.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.Execute(context.Background(), Program{
				Entry:        "/App.js",
				Files:        map[string]string{"/App.js": tt.source, "/data.json": "{oops"},
				Dependencies: tt.deps,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRuntimeExecution)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestModuleErrorCatchable(t *testing.T) {
	rt := newTestRuntime(t)

	files := map[string]string{
		"/App.js": `
			var ok;
			try { require('react') } catch (e) { ok = 'caught' }
			module.exports = ok;
		`,
	}

	result, err := rt.Execute(context.Background(), Program{Entry: "/App.js", Files: files})
	require.NoError(t, err)
	assert.Equal(t, `"caught"`, string(result.Value))
}

func TestResolve(t *testing.T) {
	l := &linker{program: Program{Files: map[string]string{
		"/a.js":         "",
		"/dir/index.js": "",
		"/dir/b.json":   "",
		"/dir/sub/c.js": "",
	}}}

	tests := []struct {
		from, spec, want string
	}{
		{"/App.js", "./a", "/a.js"},
		{"/App.js", "./a.js", "/a.js"},
		{"/App.js", "./dir", "/dir/index.js"},
		{"/dir/sub/c.js", "../b", "/dir/b.json"},
		{"/dir/sub/c.js", "/a", "/a.js"},
		{"/dir/sub/c.js", "..", "/dir/index.js"},
	}

	for _, tt := range tests {
		t.Run(tt.from+" "+tt.spec, func(t *testing.T) {
			got, err := l.resolve(tt.from, tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
