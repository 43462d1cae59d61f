package sandbox

import (
	"strings"

	"github.com/dop251/goja"
	"golang.org/x/net/html"
)

// document binds a Surface into one VM. Element handles are cached per node
// so the same node always maps to the same JS object.
type document struct {
	vm      *goja.Runtime
	surface *Surface
	handles map[*html.Node]*goja.Object
	nodes   map[*goja.Object]*html.Node
}

func newDocument(vm *goja.Runtime, surface *Surface) *document {
	return &document{
		vm:      vm,
		surface: surface,
		handles: make(map[*html.Node]*goja.Object),
		nodes:   make(map[*goja.Object]*html.Node),
	}
}

// object builds the global document
func (d *document) object() *goja.Object {
	obj := d.vm.NewObject()

	obj.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		return d.wrap(d.surface.ByID(call.Argument(0).String()))
	})
	obj.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		nodes := d.query(call.Argument(0).String())
		if len(nodes) == 0 {
			return goja.Null()
		}
		return d.wrap(nodes[0])
	})
	obj.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return d.wrapAll(d.query(call.Argument(0).String()))
	})
	obj.Set("evaluate", func(call goja.FunctionCall) goja.Value {
		nodes, err := d.surface.Evaluate(call.Argument(0).String())
		if err != nil {
			panic(d.vm.NewGoError(err))
		}
		return d.wrapAll(nodes)
	})
	obj.Set("createElement", func(call goja.FunctionCall) goja.Value {
		return d.wrap(d.surface.CreateElement(call.Argument(0).String()))
	})

	d.getter(obj, "body", func() goja.Value { return d.wrap(d.surface.Body()) })
	return obj
}

func (d *document) query(selector string) []*html.Node {
	nodes, err := d.surface.Query(selector)
	if err != nil {
		panic(d.vm.NewTypeError(err.Error()))
	}
	return nodes
}

func (d *document) wrapAll(nodes []*html.Node) goja.Value {
	values := make([]interface{}, 0, len(nodes))
	for _, n := range nodes {
		values = append(values, d.wrap(n))
	}
	return d.vm.NewArray(values...)
}

// wrap returns the element handle of n
func (d *document) wrap(n *html.Node) goja.Value {
	if n == nil {
		return goja.Null()
	}
	if h, ok := d.handles[n]; ok {
		return h
	}

	el := d.vm.NewObject()
	d.handles[n] = el
	d.nodes[el] = n

	el.Set("tagName", upper(n))
	d.accessor(el, "id",
		func() goja.Value { v, _ := d.surface.Attr(n, "id"); return d.vm.ToValue(v) },
		func(v goja.Value) { d.surface.SetAttr(n, "id", v.String()) })
	d.accessor(el, "className",
		func() goja.Value { v, _ := d.surface.Attr(n, "class"); return d.vm.ToValue(v) },
		func(v goja.Value) { d.surface.SetAttr(n, "class", v.String()) })
	d.accessor(el, "textContent",
		func() goja.Value { return d.vm.ToValue(d.surface.Text(n)) },
		func(v goja.Value) { d.surface.SetText(n, v.String()) })
	d.accessor(el, "innerHTML",
		func() goja.Value { return d.vm.ToValue(d.surface.InnerHTML(n)) },
		func(v goja.Value) { d.surface.SetInnerHTML(n, v.String()) })
	d.getter(el, "parentNode", func() goja.Value { return d.wrap(n.Parent) })
	d.getter(el, "children", func() goja.Value {
		var children []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				children = append(children, c)
			}
		}
		return d.wrapAll(children)
	})

	el.Set("setText", func(text string) { d.surface.SetText(n, text) })
	el.Set("setHTML", func(markup string) { d.surface.SetInnerHTML(n, markup) })
	el.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		v, ok := d.surface.Attr(n, call.Argument(0).String())
		if !ok {
			return goja.Null()
		}
		return d.vm.ToValue(v)
	})
	el.Set("setAttribute", func(name, value string) { d.surface.SetAttr(n, name, value) })
	el.Set("removeAttribute", func(name string) { d.surface.RemoveAttr(n, name) })
	el.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		child := d.node(call.Argument(0))
		d.surface.Append(n, child)
		return d.wrap(child)
	})
	el.Set("remove", func() { d.surface.Remove(n) })
	el.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		nodes := d.queryWithin(n, call.Argument(0).String())
		if len(nodes) == 0 {
			return goja.Null()
		}
		return d.wrap(nodes[0])
	})
	el.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return d.wrapAll(d.queryWithin(n, call.Argument(0).String()))
	})
	// events are never dispatched on the server
	el.Set("addEventListener", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	el.Set("removeEventListener", func(goja.FunctionCall) goja.Value { return goja.Undefined() })

	return el
}

func (d *document) queryWithin(n *html.Node, selector string) []*html.Node {
	nodes, err := d.surface.QueryWithin(n, selector)
	if err != nil {
		panic(d.vm.NewTypeError(err.Error()))
	}
	// QueryWithin includes n itself when it matches
	if len(nodes) > 0 && nodes[0] == n {
		nodes = nodes[1:]
	}
	return nodes
}

// node resolves an appendChild argument: an element handle or a tag name
func (d *document) node(v goja.Value) *html.Node {
	if obj, ok := v.(*goja.Object); ok {
		if n, ok := d.nodes[obj]; ok {
			return n
		}
		panic(d.vm.NewTypeError("appendChild: argument is not an element"))
	}
	return d.surface.CreateElement(v.String())
}

func (d *document) getter(obj *goja.Object, name string, get func() goja.Value) {
	obj.DefineAccessorProperty(name,
		d.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() }),
		nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

func (d *document) accessor(obj *goja.Object, name string, get func() goja.Value, set func(goja.Value)) {
	obj.DefineAccessorProperty(name,
		d.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() }),
		d.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0))
			return goja.Undefined()
		}),
		goja.FLAG_FALSE, goja.FLAG_TRUE)
}

func upper(n *html.Node) string {
	if n.Type != html.ElementNode {
		return ""
	}
	return strings.ToUpper(n.Data)
}
