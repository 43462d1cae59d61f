package sandbox

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RootID is the id of the element programs render into
const RootID = "root"

const surfaceSkeleton = `<!DOCTYPE html><html><head></head><body><div id="root"></div></body></html>`

// Surface is the document a program renders into
type Surface struct {
	mu  sync.Mutex
	doc *goquery.Document
}

// NewSurface creates an empty document with a root container
func NewSurface() *Surface {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(surfaceSkeleton))
	if err != nil {
		// the skeleton is constant
		panic(err)
	}
	return &Surface{doc: doc}
}

// LoadHTML replaces the root content with markup
func (s *Surface) LoadHTML(markup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root().SetHtml(markup)
}

// Root returns the root container node
func (s *Surface) Root() *html.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root().Get(0)
}

// Body returns the body node
func (s *Surface) Body() *html.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Find("body").Get(0)
}

// ByID returns the first element whose id attribute equals id
func (s *Surface) ByID(id string) *html.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	match := s.doc.Find("[id]").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		v, _ := sel.Attr("id")
		return v == id
	})
	if match.Length() == 0 {
		return nil
	}
	return match.Get(0)
}

// Query returns elements matching a CSS selector, in document order
func (s *Surface) Query(selector string) ([]*html.Node, error) {
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Find(selector).Nodes, nil
}

// QueryWithin returns descendants of n matching selector
func (s *Surface) QueryWithin(n *html.Node, selector string) ([]*html.Node, error) {
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return goquery.NewDocumentFromNode(n).Find(selector).Nodes, nil
}

// Evaluate returns the element nodes selected by an XPath expression
func (s *Surface) Evaluate(expr string) ([]*html.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes, err := htmlquery.QueryAll(s.doc.Get(0), expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return nodes, nil
}

// CreateElement returns a detached element
func (s *Surface) CreateElement(tag string) *html.Node {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// Append moves child under parent
func (s *Surface) Append(parent, child *html.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	parent.AppendChild(child)
}

// Remove detaches n from its parent
func (s *Surface) Remove(n *html.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Text returns the text content of n
func (s *Surface) Text(n *html.Node) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selection(n).Text()
}

// SetText replaces the children of n with a text node
func (s *Surface) SetText(n *html.Node, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	selection(n).SetText(text)
}

// InnerHTML returns the markup of the children of n
func (s *Surface) InnerHTML(n *html.Node) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	markup, _ := selection(n).Html()
	return markup
}

// SetInnerHTML parses markup into the children of n
func (s *Surface) SetInnerHTML(n *html.Node, markup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	selection(n).SetHtml(markup)
}

// Attr returns an attribute of n
func (s *Surface) Attr(n *html.Node, name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selection(n).Attr(name)
}

// SetAttr sets an attribute of n
func (s *Surface) SetAttr(n *html.Node, name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	selection(n).SetAttr(name, value)
}

// RemoveAttr removes an attribute of n
func (s *Surface) RemoveAttr(n *html.Node, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	selection(n).RemoveAttr(name)
}

// HTML returns the markup rendered into the root container
func (s *Surface) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	markup, _ := s.root().Html()
	return markup
}

// SanitizedHTML returns HTML with scripts, handlers and unsafe URLs stripped
func (s *Surface) SanitizedHTML() string {
	return sanitizer.Sanitize(s.HTML())
}

func (s *Surface) root() *goquery.Selection {
	return s.doc.Find("#" + RootID).First()
}

func selection(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

var sanitizer = newSanitizer()

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id", "class", "title", "role").Globally()
	p.AllowElements("button", "section", "main", "header", "footer", "nav", "article", "aside", "label", "small")
	p.AllowAttrs("type", "disabled").OnElements("button")
	return p
}
