package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestSurface(t *testing.T) {
	s := NewSurface()

	root := s.ByID(RootID)
	require.NotNil(t, root)
	assert.Equal(t, "div", root.Data)
	assert.Equal(t, "", s.HTML())

	h1 := s.CreateElement("H1")
	s.Append(root, h1)
	s.SetText(h1, "Hello <world>")
	s.SetAttr(h1, "class", "title")

	assert.Equal(t, `<h1 class="title">Hello &lt;world&gt;</h1>`, s.HTML())
	assert.Equal(t, "Hello <world>", s.Text(root))

	nodes, err := s.Query("#root .title")
	require.NoError(t, err)
	assert.Equal(t, []*html.Node{h1}, nodes)

	_, err = s.Query("div[")
	assert.Error(t, err)

	nodes, err = s.Evaluate("//h1[@class='title']")
	require.NoError(t, err)
	assert.Len(t, nodes, 1)

	_, err = s.Evaluate("//h1[")
	assert.Error(t, err)

	s.Remove(h1)
	assert.Equal(t, "", s.HTML())
}

func TestSurfaceSanitize(t *testing.T) {
	s := NewSurface()
	s.LoadHTML(`<button class="counter" onclick="steal()">Count: 0</button><script>steal()</script><a href="javascript:alert(1)">x</a>`)

	clean := s.SanitizedHTML()
	assert.Contains(t, clean, `<button class="counter">Count: 0</button>`)
	assert.NotContains(t, clean, "onclick")
	assert.NotContains(t, clean, "<script")
	assert.NotContains(t, clean, "javascript:")
}

func TestDocumentBindings(t *testing.T) {
	rt := newTestRuntime(t)

	source := `
		var root = document.getElementById('root');
		var title = root.appendChild('h1');
		title.textContent = 'Hello Sandpack!';

		var button = document.createElement('button');
		button.setAttribute('class', 'counter');
		button.textContent = 'Count: 0';
		button.addEventListener('click', function () {});
		root.appendChild(button);

		var list = root.appendChild('ul');
		list.innerHTML = '<li>a</li><li>b</li>';

		module.exports = {
			same: document.querySelector('#root') === root,
			tag: title.tagName,
			cls: button.getAttribute('class'),
			missing: button.getAttribute('data-x'),
			items: document.querySelectorAll('li').length,
			within: list.querySelectorAll('li').length,
			xpath: document.evaluate('//li').length,
			parent: button.parentNode === root,
			children: root.children.length,
			none: document.querySelector('.nothing'),
		};
	`

	result, err := rt.Execute(context.Background(), Program{
		Entry: "/App.js",
		Files: map[string]string{"/App.js": source},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"same": true,
		"tag": "H1",
		"cls": "counter",
		"missing": null,
		"items": 2,
		"within": 2,
		"xpath": 2,
		"parent": true,
		"children": 3,
		"none": null
	}`, string(result.Value))
	assert.Equal(t,
		`<h1>Hello Sandpack!</h1><button class="counter">Count: 0</button><ul><li>a</li><li>b</li></ul>`,
		result.HTML)
}

func TestDocumentInvalidSelectorThrows(t *testing.T) {
	rt := newTestRuntime(t)

	_, err := rt.Execute(context.Background(), Program{
		Entry: "/App.js",
		Files: map[string]string{"/App.js": "document.querySelector('div[')"},
	})
	assert.ErrorIs(t, err, ErrRuntimeExecution)
	assert.Contains(t, err.Error(), "invalid selector")
}

func TestDocumentAppendChildRejectsForeignObjects(t *testing.T) {
	rt := newTestRuntime(t)

	_, err := rt.Execute(context.Background(), Program{
		Entry: "/App.js",
		Files: map[string]string{"/App.js": "document.getElementById('root').appendChild({})"},
	})
	assert.ErrorIs(t, err, ErrRuntimeExecution)
}
