package analysis

import (
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/walteh/t4ls/pkg/diagnostic"
	"github.com/walteh/t4ls/pkg/syntax"
)

// Document represents a text document at one version
type Document struct {
	URI     string
	Version int32
	Content string
}

// Result is what analysing one document version produced.
type Result struct {
	URI         string
	Version     int32
	Tree        *syntax.Tree
	Diagnostics []diagnostic.Diagnostic
}

type entry struct {
	doc    *Document
	result *Result
}

// DocumentManager keeps the latest document and result per URI.
type DocumentManager struct {
	store *sync.Map // map[string]*entry
	fs    afero.Fs
}

// NewDocumentManager creates a manager. When fs is not nil, Get falls back to
// reading documents that were never opened from it.
func NewDocumentManager(fs afero.Fs) *DocumentManager {
	return &DocumentManager{
		store: &sync.Map{},
		fs:    fs,
	}
}

// normalizeURI ensures consistent URI handling by removing the file:// prefix if present
func normalizeURI(uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	uri = strings.TrimPrefix(uri, "file:")
	return uri
}

func (m *DocumentManager) load(uri string) (*entry, bool) {
	v, ok := m.store.Load(normalizeURI(uri))
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (m *DocumentManager) Get(uri string) (*Document, bool) {
	if e, ok := m.load(uri); ok {
		return e.doc, true
	}
	if m.fs == nil {
		return nil, false
	}
	path := normalizeURI(uri)
	content, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return nil, false
	}
	doc := &Document{URI: path, Content: string(content)}
	m.store.Store(path, &entry{doc: doc})
	return doc, true
}

// Result returns the published result for the current version of uri. There is
// none while a newer version is still being analysed.
func (m *DocumentManager) Result(uri string) (*Result, bool) {
	e, ok := m.load(uri)
	if !ok || e.result == nil || e.result.Version != e.doc.Version {
		return nil, false
	}
	return e.result, true
}

// Store records doc as the current content. The published result survives only
// when doc is the same version with the same content.
func (m *DocumentManager) Store(doc *Document) {
	e := &entry{doc: doc}
	if prev, ok := m.load(doc.URI); ok && prev.result != nil &&
		prev.doc.Version == doc.Version && prev.doc.Content == doc.Content {
		e.result = prev.result
	}
	m.store.Store(normalizeURI(doc.URI), e)
}

func (m *DocumentManager) storeResult(doc *Document, res *Result) {
	m.store.Store(normalizeURI(doc.URI), &entry{doc: doc, result: res})
}

func (m *DocumentManager) Delete(uri string) {
	m.store.Delete(normalizeURI(uri))
}
