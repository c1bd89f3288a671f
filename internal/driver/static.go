package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ManifestFile names the URL-to-file index inside a capture directory.
const ManifestFile = "manifest.json"

// Event is one side effect the static driver recorded.
type Event struct {
	Kind   string // navigate, click, select, submit, keys
	URL    string
	Target string
	Value  string
}

// Static replays captured HTML pages. Links and forms navigate between pages by URL;
// selecting options and typing are recorded but never sent anywhere.
type Static struct {
	pages   map[string]string
	current string
	doc     *goquery.Document
	events  []Event
}

// NewStatic builds a driver over pages keyed by absolute URL.
func NewStatic(pages map[string]string) *Static {
	copied := make(map[string]string, len(pages))
	for u, html := range pages {
		copied[pageKey(u)] = html
	}
	return &Static{pages: copied}
}

// LoadStatic reads a capture directory written by SaveCapture.
func LoadStatic(dir string) (*Static, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read capture manifest: %w", err)
	}
	var manifest map[string]string
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse capture manifest: %w", err)
	}

	pages := make(map[string]string, len(manifest))
	for u, file := range manifest {
		html, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("failed to read captured page %s: %w", file, err)
		}
		pages[u] = string(html)
	}
	return NewStatic(pages), nil
}

// SaveCapture writes pages and a manifest into dir so LoadStatic can replay them.
func SaveCapture(dir string, pages map[string]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create capture directory: %w", err)
	}
	manifest := make(map[string]string, len(pages))
	i := 0
	for u, html := range pages {
		i++
		file := fmt.Sprintf("page-%02d.html", i)
		if err := os.WriteFile(filepath.Join(dir, file), []byte(html), 0o644); err != nil {
			return fmt.Errorf("failed to write captured page: %w", err)
		}
		manifest[u] = file
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}

// pageKey drops the fragment so anchors resolve to the captured page.
func pageKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	return u.String()
}

// Events returns the recorded side effects in order.
func (s *Static) Events() []Event {
	return append([]Event(nil), s.events...)
}

func (s *Static) record(e Event) {
	e.URL = s.current
	s.events = append(s.events, e)
}

func (s *Static) load(target string) error {
	key := pageKey(target)
	html, ok := s.pages[key]
	if !ok {
		return &Error{Op: "navigate", Target: target, Message: "no captured page"}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &Error{Op: "navigate", Target: target, Message: "failed to parse HTML", Cause: err}
	}
	s.current = key
	s.doc = doc
	s.record(Event{Kind: "navigate"})
	return nil
}

func (s *Static) resolve(ref string) (string, error) {
	base, err := url.Parse(s.current)
	if err != nil {
		return "", err
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}

func selection(el Element) (*goquery.Selection, error) {
	sel, ok := el.(*goquery.Selection)
	if !ok || sel == nil || sel.Length() == 0 {
		return nil, fmt.Errorf("element %T was not returned by the static driver", el)
	}
	return sel, nil
}

func (s *Static) loaded() error {
	if s.doc == nil {
		return &Error{Op: "query", Message: "no page loaded"}
	}
	return nil
}

// Navigate loads the captured page for url.
func (s *Static) Navigate(_ context.Context, url string) error {
	return s.load(url)
}

// CurrentURL returns the URL of the loaded page.
func (s *Static) CurrentURL(_ context.Context) (string, error) {
	return s.current, nil
}

// WaitForElement returns the first match immediately; a captured page never changes.
func (s *Static) WaitForElement(_ context.Context, selector string, _ time.Duration) (Element, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	found := s.doc.Find(selector)
	if found.Length() == 0 {
		return nil, &Error{Op: "wait", Target: selector, Message: "element not present", Cause: ErrTimeout}
	}
	return found.First(), nil
}

// FindElements returns every match under scope.
func (s *Static) FindElements(_ context.Context, scope Element, selector string) ([]Element, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	root := s.doc.Selection
	if scope != nil {
		sel, err := selection(scope)
		if err != nil {
			return nil, &Error{Op: "find", Target: selector, Message: "invalid scope", Cause: err}
		}
		root = sel
	}
	found := root.Find(selector)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, item *goquery.Selection) {
		out = append(out, item)
	})
	return out, nil
}

// ReadText returns the trimmed text content of el.
func (s *Static) ReadText(_ context.Context, el Element) (string, error) {
	sel, err := selection(el)
	if err != nil {
		return "", &Error{Op: "text", Message: "invalid element", Cause: err}
	}
	return strings.TrimSpace(sel.Text()), nil
}

// Attribute returns the named attribute, or "" when absent.
func (s *Static) Attribute(_ context.Context, el Element, name string) (string, error) {
	sel, err := selection(el)
	if err != nil {
		return "", &Error{Op: "attribute", Target: name, Message: "invalid element", Cause: err}
	}
	return sel.AttrOr(name, ""), nil
}

// Click follows links, selects options and submits forms from submit controls.
func (s *Static) Click(ctx context.Context, el Element) error {
	sel, err := selection(el)
	if err != nil {
		return &Error{Op: "click", Message: "invalid element", Cause: err}
	}

	switch goquery.NodeName(sel) {
	case "a":
		href, ok := sel.Attr("href")
		if !ok {
			s.record(Event{Kind: "click", Target: "a", Value: strings.TrimSpace(sel.Text())})
			return nil
		}
		target, err := s.resolve(href)
		if err != nil {
			return &Error{Op: "click", Target: href, Message: "invalid link", Cause: err}
		}
		s.record(Event{Kind: "click", Target: "a", Value: strings.TrimSpace(sel.Text())})
		return s.load(target)
	case "option":
		sel.Parent().Find("option").RemoveAttr("selected")
		sel.SetAttr("selected", "selected")
		s.record(Event{Kind: "select", Target: "option", Value: strings.TrimSpace(sel.Text())})
		return nil
	case "input", "button":
		kind := strings.ToLower(sel.AttrOr("type", "submit"))
		if kind == "submit" || kind == "image" {
			s.record(Event{Kind: "click", Target: goquery.NodeName(sel), Value: sel.AttrOr("value", "")})
			return s.SubmitForm(ctx, sel)
		}
	}
	s.record(Event{Kind: "click", Target: goquery.NodeName(sel)})
	return nil
}

// SubmitForm navigates to the action of the form containing el.
func (s *Static) SubmitForm(_ context.Context, el Element) error {
	sel, err := selection(el)
	if err != nil {
		return &Error{Op: "submit", Message: "invalid element", Cause: err}
	}
	form := sel
	if goquery.NodeName(sel) != "form" {
		form = sel.Closest("form")
	}
	if form.Length() == 0 {
		return &Error{Op: "submit", Target: goquery.NodeName(sel), Message: "element is not inside a form"}
	}

	target := s.current
	if action := form.AttrOr("action", ""); action != "" {
		if target, err = s.resolve(action); err != nil {
			return &Error{Op: "submit", Target: action, Message: "invalid form action", Cause: err}
		}
	}
	s.record(Event{Kind: "submit", Target: form.AttrOr("id", "form")})
	return s.load(target)
}

// SendKeys records the typed text and stores it as the element's value.
func (s *Static) SendKeys(_ context.Context, el Element, text string) error {
	sel, err := selection(el)
	if err != nil {
		return &Error{Op: "keys", Message: "invalid element", Cause: err}
	}
	sel.SetAttr("value", sel.AttrOr("value", "")+text)
	recorded := text
	if strings.EqualFold(sel.AttrOr("type", ""), "password") {
		recorded = strings.Repeat("*", len(text))
	}
	s.record(Event{Kind: "keys", Target: sel.AttrOr("id", goquery.NodeName(sel)), Value: recorded})
	return nil
}

// HTML renders the current document.
func (s *Static) HTML(_ context.Context) (string, error) {
	if err := s.loaded(); err != nil {
		return "", err
	}
	return goquery.OuterHtml(s.doc.Selection)
}

// Close is a no-op.
func (s *Static) Close() error {
	return nil
}
