package analysis_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/t4ls/pkg/analysis"
	"github.com/walteh/t4ls/pkg/diagnostic"
	"github.com/walteh/t4ls/pkg/directive"
	"github.com/walteh/t4ls/pkg/environment"
)

func TestAnalyze(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/lib/common.ttinclude", []byte(""), 0o644))

	env := &environment.Environment{IncludePaths: []string{"/lib"}}
	a := analysis.NewAnalyzer(directive.DefaultRegistry(), env, analysis.WithFileSystem(fs))

	tests := []struct {
		name    string
		content string
		codes   []diagnostic.Code
	}{
		{
			name:    "clean",
			content: `<#@ template language="C#" #><#@ include file="common.ttinclude" #>Hello`,
			codes:   []diagnostic.Code{},
		},
		{
			name:    "every_stage",
			content: `<#@ template language=C# debug="maybe" #><#@ include file="missing.tt" #><# x`,
			codes: []diagnostic.Code{
				diagnostic.ParseUnquotedValue,
				diagnostic.ValidationInvalidValue,
				diagnostic.ValidationIncludeNotFound,
				diagnostic.LexUnterminatedCodeBlock,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Analyze(context.Background(), &analysis.Document{
				URI:     "file:///proj/a.tt",
				Version: 3,
				Content: tt.content,
			})
			require.NoError(t, err)
			assert.Equal(t, int32(3), res.Version)
			assert.Equal(t, tt.content, res.Tree.Source())

			codes := []diagnostic.Code{}
			for _, d := range res.Diagnostics {
				codes = append(codes, d.Code)
			}
			assert.Equal(t, tt.codes, codes)
		})
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	a := analysis.NewAnalyzer(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := a.Analyze(ctx, &analysis.Document{URI: "a.tt", Content: "<#@ template #>"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)

	_, err = a.Analyze(context.Background(), nil)
	require.Error(t, err)
}

type recorder struct {
	mu       sync.Mutex
	versions map[string][]int32
}

func (r *recorder) publish(_ context.Context, res *analysis.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.versions == nil {
		r.versions = map[string][]int32{}
	}
	r.versions[res.URI] = append(r.versions[res.URI], res.Version)
}

func (r *recorder) get(uri string) []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int32(nil), r.versions[uri]...)
}

func TestSchedulerPublishesLatest(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := analysis.NewScheduler(ctx, analysis.NewAnalyzer(nil, nil), nil, rec.publish)
	defer s.Shutdown()

	big := strings.Repeat(`<#@ import namespace="System" #>`, 2000)
	for v := int32(1); v <= 5; v++ {
		_, ok := s.Submit(ctx, &analysis.Document{URI: "file:///a.tt", Version: v, Content: big})
		require.True(t, ok)
	}
	s.Wait()

	versions := rec.get("file:///a.tt")
	require.NotEmpty(t, versions)
	assert.Equal(t, int32(5), versions[len(versions)-1])
	for i := 1; i < len(versions); i++ {
		assert.Less(t, versions[i-1], versions[i], "results are published in version order")
	}

	res, ok := s.Latest("/a.tt")
	require.True(t, ok)
	assert.Equal(t, int32(5), res.Version)
}

func TestSchedulerDropsStaleVersion(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := analysis.NewScheduler(ctx, analysis.NewAnalyzer(nil, nil), nil, rec.publish)
	defer s.Shutdown()

	id, ok := s.Submit(ctx, &analysis.Document{URI: "a.tt", Version: 7, Content: "<#@ bogus #>"})
	require.True(t, ok)
	assert.NotEqual(t, uuid.Nil, id)

	id, ok = s.Submit(ctx, &analysis.Document{URI: "a.tt", Version: 6, Content: "old"})
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, id)

	s.Wait()

	assert.Equal(t, []int32{7}, rec.get("a.tt"))

	res, ok := s.Latest("a.tt")
	require.True(t, ok)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diagnostic.ValidationUnknownDirective, res.Diagnostics[0].Code)

	doc, ok := s.Documents().Get("a.tt")
	require.True(t, ok)
	assert.Equal(t, "<#@ bogus #>", doc.Content)
}

func TestSchedulerHidesSupersededResult(t *testing.T) {
	ctx := context.Background()
	s := analysis.NewScheduler(ctx, analysis.NewAnalyzer(nil, nil), nil, nil)
	defer s.Shutdown()

	_, ok := s.Submit(ctx, &analysis.Document{URI: "a.tt", Version: 1, Content: "<#@ bogus #>"})
	require.True(t, ok)
	s.Wait()

	res, ok := s.Latest("a.tt")
	require.True(t, ok)
	require.Equal(t, int32(1), res.Version)

	big := strings.Repeat(`<#@ import namespace="System" #>`, 2000)
	_, ok = s.Submit(ctx, &analysis.Document{URI: "a.tt", Version: 2, Content: big})
	require.True(t, ok)

	if res, ok := s.Latest("a.tt"); ok {
		assert.Equal(t, int32(2), res.Version, "version 1 is hidden once version 2 is submitted")
	}

	s.Wait()
	res, ok = s.Latest("a.tt")
	require.True(t, ok)
	assert.Equal(t, int32(2), res.Version)
	assert.Empty(t, res.Diagnostics)
}

func TestDocumentManagerDropsResultOfOlderVersion(t *testing.T) {
	ctx := context.Background()
	m := analysis.NewDocumentManager(nil)
	s := analysis.NewScheduler(ctx, analysis.NewAnalyzer(nil, nil), m, nil)
	defer s.Shutdown()

	_, ok := s.Submit(ctx, &analysis.Document{URI: "a.tt", Version: 1, Content: "a"})
	require.True(t, ok)
	s.Wait()

	m.Store(&analysis.Document{URI: "a.tt", Version: 1, Content: "a"})
	_, ok = m.Result("a.tt")
	assert.True(t, ok, "storing the same document keeps its result")

	m.Store(&analysis.Document{URI: "a.tt", Version: 2, Content: "b"})
	_, ok = m.Result("a.tt")
	assert.False(t, ok)
}

func TestSchedulerIndependentDocuments(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := analysis.NewScheduler(ctx, analysis.NewAnalyzer(nil, nil), nil, rec.publish)
	defer s.Shutdown()

	_, ok := s.Submit(ctx, &analysis.Document{URI: "a.tt", Version: 1, Content: "a"})
	require.True(t, ok)
	_, ok = s.Submit(ctx, &analysis.Document{URI: "b.tt", Version: 1, Content: "b"})
	require.True(t, ok)
	s.Wait()

	assert.Equal(t, []int32{1}, rec.get("a.tt"))
	assert.Equal(t, []int32{1}, rec.get("b.tt"))
}

func TestSchedulerClose(t *testing.T) {
	ctx := context.Background()
	s := analysis.NewScheduler(ctx, analysis.NewAnalyzer(nil, nil), nil, nil)

	_, ok := s.Submit(ctx, &analysis.Document{URI: "a.tt", Version: 1, Content: "a"})
	require.True(t, ok)
	s.Wait()

	_, ok = s.Latest("a.tt")
	require.True(t, ok)

	s.Close("a.tt")
	_, ok = s.Latest("a.tt")
	assert.False(t, ok)

	// a closed document starts over at any version
	_, ok = s.Submit(ctx, &analysis.Document{URI: "a.tt", Version: 0, Content: "b"})
	assert.True(t, ok)

	s.Shutdown()
	_, ok = s.Submit(ctx, &analysis.Document{URI: "a.tt", Version: 9, Content: "c"})
	assert.False(t, ok, "no tasks are accepted after shutdown")
}

func TestDocumentManagerFallsBackToFileSystem(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.tt", []byte("<#@ template #>"), 0o644))

	m := analysis.NewDocumentManager(fs)

	doc, ok := m.Get("file:///proj/a.tt")
	require.True(t, ok)
	assert.Equal(t, "<#@ template #>", doc.Content)

	_, ok = m.Get("/proj/missing.tt")
	assert.False(t, ok)

	m.Store(&analysis.Document{URI: "file:///proj/a.tt", Version: 2, Content: "edited"})
	doc, ok = m.Get("/proj/a.tt")
	require.True(t, ok)
	assert.Equal(t, "edited", doc.Content)

	m.Delete("/proj/a.tt")
	doc, ok = m.Get("/proj/a.tt")
	require.True(t, ok, "deleted documents are read again from disk")
	assert.Equal(t, "<#@ template #>", doc.Content)
}
