// Package workspace implements the virtual file system behind a sandbox.
//
// A Workspace is the handle every panel works against. It owns:
//   - Store: path → content map, the active file pointer, the seed snapshot
//   - Console: bounded, append-only log of captured console records
//   - change subscribers notified after every mutation
//
// Invariants:
//   - the entry file is always present; deleting it is a silent no-op
//   - the active file always names an existing path and falls back to the
//     entry file when its target is deleted
//   - writing identical content is not a mutation and emits nothing
//
// Errors are sentinel values (ErrInvalidPath, ErrNotFound, ErrProtectedFile)
// wrapped with context; KindOf maps any error to a types.ErrorKind.
//
// Example Usage:
//
//	ws, err := workspace.New(workspace.Config{
//	    Entry: "/App.js",
//	    Files: map[string]string{"/App.js": "console.log('hi')"},
//	}, logger)
//	unsubscribe := ws.OnFilesChanged(func(c types.FileChange) { ... })
//	defer unsubscribe()
//	_ = ws.AddFile("Foo.js", "// x")
package workspace
