package sandbox

import (
	"fmt"
	"path"
	"strings"

	"github.com/dop251/goja"
)

const moduleWrapperHead = "(function (module, exports, require) {"
const moduleWrapperTail = "\n})"

// linker loads workspace files as CommonJS modules inside one VM
type linker struct {
	vm      *goja.Runtime
	program Program
	cache   map[string]*goja.Object // path -> module object
}

func newLinker(vm *goja.Runtime, program Program) *linker {
	return &linker{
		vm:      vm,
		program: program,
		cache:   make(map[string]*goja.Object),
	}
}

// run loads the entry module and returns its exports.
// Going through a Callable lets goja turn interrupts and exceptions into errors.
func (l *linker) run() (goja.Value, error) {
	entry, _ := goja.AssertFunction(l.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return l.load(l.program.Entry)
	}))
	return entry(goja.Undefined())
}

// resolve maps a specifier to a file path relative to the requiring module
func (l *linker) resolve(from, spec string) (string, error) {
	if !isRelative(spec) {
		if _, declared := l.program.Dependencies[spec]; declared {
			return "", fmt.Errorf("cannot resolve module %q: declared dependency, package fetching is not supported", spec)
		}
		return "", fmt.Errorf("cannot resolve module %q", spec)
	}

	base := spec
	if !strings.HasPrefix(spec, "/") {
		base = path.Join(path.Dir(from), spec)
	}
	base = path.Clean("/" + base)

	for _, candidate := range []string{base, base + ".js", base + ".json", base + "/index.js"} {
		if _, ok := l.program.Files[candidate]; ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("cannot resolve module %q from %s", spec, from)
}

// load evaluates p once and returns module.exports. Errors are thrown as JS exceptions.
func (l *linker) load(p string) goja.Value {
	if module, ok := l.cache[p]; ok {
		return module.Get("exports")
	}

	source, ok := l.program.Files[p]
	if !ok {
		panic(l.vm.NewGoError(fmt.Errorf("cannot resolve module %q", p)))
	}

	module := l.vm.NewObject()
	module.Set("id", p)
	module.Set("exports", l.vm.NewObject())
	// cached before evaluation so cycles see partial exports
	l.cache[p] = module

	switch path.Ext(p) {
	case ".js", ".cjs", ".mjs":
		l.evaluate(p, source, module)
	case ".json":
		module.Set("exports", l.parseJSON(p, source))
	default:
		module.Set("exports", source)
	}
	return module.Get("exports")
}

func (l *linker) evaluate(p, source string, module *goja.Object) {
	prog, err := goja.Compile(p, moduleWrapperHead+source+moduleWrapperTail, false)
	if err != nil {
		panic(l.vm.NewGoError(err))
	}
	wrapper, err := l.vm.RunProgram(prog)
	if err != nil {
		panic(err)
	}
	fn, ok := goja.AssertFunction(wrapper)
	if !ok {
		panic(l.vm.NewTypeError("module %s did not compile to a function", p))
	}

	require := l.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		target, err := l.resolve(p, call.Argument(0).String())
		if err != nil {
			panic(l.vm.NewGoError(err))
		}
		return l.load(target)
	})

	if _, err := fn(goja.Undefined(), module, module.Get("exports"), require); err != nil {
		panic(err)
	}
}

func (l *linker) parseJSON(p, source string) goja.Value {
	parse, ok := goja.AssertFunction(l.vm.Get("JSON").ToObject(l.vm).Get("parse"))
	if !ok {
		panic(l.vm.NewTypeError("JSON.parse is unavailable"))
	}
	v, err := parse(goja.Undefined(), l.vm.ToValue(source))
	if err != nil {
		panic(l.vm.NewGoError(fmt.Errorf("parse %s: %w", p, err)))
	}
	return v
}

func isRelative(spec string) bool {
	return spec == "." || spec == ".." ||
		strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || strings.HasPrefix(spec, "/")
}
