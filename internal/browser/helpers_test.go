package browser

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/meshbrowse/internal/assettree"
	"github.com/smileynet/meshbrowse/internal/fetch"
	"github.com/smileynet/meshbrowse/internal/loading"
)

const sampleJSON = `{
  "identifier": "demo",
  "children": [
    {"identifier": "models/cube.glb"},
    {"identifier": "models/sphere.glb"},
    {"identifier": "set", "children": [
      {"identifier": "set/a.glb"},
      {"identifier": "set/b.glb"}
    ]}
  ]
}`

func sampleTree(t *testing.T) *assettree.Tree {
	t.Helper()
	tree, err := assettree.Parse([]byte(sampleJSON), assettree.FormatJSON)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return tree
}

var errMissing = errors.New("missing")

// instantLoader completes every load as soon as it is issued.
type instantLoader struct {
	locators []string
	results  map[loading.Handle]fetch.Result
	failing  map[string]bool
	forgot   int
}

func newInstantLoader() *instantLoader {
	return &instantLoader{
		results: make(map[loading.Handle]fetch.Result),
		failing: make(map[string]bool),
	}
}

func (l *instantLoader) Load(h loading.Handle, locator string) {
	l.locators = append(l.locators, locator)
	res := fetch.Result{Locator: locator, Size: 2048}
	if l.failing[locator] {
		res = fetch.Result{Locator: locator, Err: errMissing}
	}
	l.results[h] = res
}

func (l *instantLoader) IsComplete(h loading.Handle) bool {
	res, ok := l.results[h]
	return ok && res.Err == nil
}

func (l *instantLoader) Result(h loading.Handle) (fetch.Result, bool) {
	res, ok := l.results[h]
	return res, ok
}

func (l *instantLoader) Forget(handles ...loading.Handle) {
	l.forgot += len(handles)
}

func newTestModel(t *testing.T, opts ...Option) (Model, *instantLoader) {
	t.Helper()
	loader := newInstantLoader()
	opts = append([]Option{WithResults(loader)}, opts...)
	m := New(sampleTree(t), loading.New(), loader, opts...)
	return m, loader
}

func step(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// started returns a model that has started and knows an 80x24 terminal.
func started(t *testing.T, opts ...Option) (Model, *instantLoader) {
	t.Helper()
	m, loader := newTestModel(t, opts...)
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24}, startMsg{})
	return m, loader
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
