/*
Package sandbox executes workspace programs in isolated goja runtimes.

# Overview

A Program is the file set of a workspace plus its entry path. The runtime
links the files as CommonJS modules and runs the entry module in a fresh
goja VM. Each execution has:

  - CPU limits (context deadline and per-runtime timeout, enforced with vm.Interrupt)
  - Stack limits (maximum call stack size)
  - API restrictions (no process, no timers, no host filesystem or network)
  - A document surface rooted at <div id="root"> for rendering output
  - Console capture for log, info, warn, error and debug

# Modules

Every JavaScript file is wrapped as

	function (module, exports, require) { ... }

require resolves "./x", "../x" and "/x" against the requiring file, trying
the exact path, then ".js", ".json" and "/index.js". JSON files are parsed and
other files export their text. Bare package names are not fetched; requiring
one fails with a runtime error.

# Surface

The document global is backed by goquery. It supports getElementById,
querySelector, querySelectorAll, createElement and an XPath evaluate helper.
The rendered HTML is sanitised with bluemonday before it leaves the package.

# Usage Example

	pool, err := sandbox.NewPool(sandbox.DefaultConfig(), 4)
	if err != nil {
		return err
	}
	defer pool.Close()

	result, err := pool.Execute(ctx, sandbox.Program{
		Entry: "/App.js",
		Files: files,
	})
	if err != nil {
		logger.Error("Execution failed", zap.Error(err))
	}
*/
package sandbox
