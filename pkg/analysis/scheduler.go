package analysis

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PublishFunc receives the result of a task that is still current. It is called
// while the scheduler holds its lock, so it must not call back into the
// scheduler.
type PublishFunc func(ctx context.Context, res *Result)

type fileState struct {
	version int32
	task    uuid.UUID
	cancel  context.CancelFunc
}

// Scheduler runs one analysis task per submitted document version. Submitting a
// version cancels the in-flight task of the same document, and a task's result is
// published only if no newer version was submitted in the meantime.
type Scheduler struct {
	base      context.Context
	stop      context.CancelFunc
	analyzer  *Analyzer
	publish   PublishFunc
	documents *DocumentManager

	mu    sync.Mutex
	files map[string]*fileState
	wg    sync.WaitGroup
}

func NewScheduler(ctx context.Context, analyzer *Analyzer, documents *DocumentManager, publish PublishFunc) *Scheduler {
	base, stop := context.WithCancel(ctx)
	if documents == nil {
		documents = NewDocumentManager(nil)
	}
	return &Scheduler{
		base:      base,
		stop:      stop,
		analyzer:  analyzer,
		publish:   publish,
		documents: documents,
		files:     map[string]*fileState{},
	}
}

func (s *Scheduler) Documents() *DocumentManager {
	return s.documents
}

// Submit starts analysing doc. It returns false, and does nothing, when a newer
// version of the same document was already submitted.
func (s *Scheduler) Submit(ctx context.Context, doc *Document) (uuid.UUID, bool) {
	uri := normalizeURI(doc.URI)
	logger := zerolog.Ctx(ctx)

	s.mu.Lock()
	if s.base.Err() != nil {
		s.mu.Unlock()
		return uuid.Nil, false
	}
	prev := s.files[uri]
	if prev != nil && doc.Version < prev.version {
		s.mu.Unlock()
		logger.Debug().Str("uri", uri).Int32("version", doc.Version).Int32("latest", prev.version).Msg("dropping stale document version")
		return uuid.Nil, false
	}
	if prev != nil {
		prev.cancel()
	}

	id := uuid.New()
	taskLogger := logger.With().Str("task", id.String()).Str("uri", uri).Int32("version", doc.Version).Logger()
	taskCtx, cancel := context.WithCancel(taskLogger.WithContext(s.base))
	s.files[uri] = &fileState{version: doc.Version, task: id, cancel: cancel}
	s.documents.Store(doc)
	s.wg.Add(1)
	s.mu.Unlock()

	taskLogger.Debug().Msg("submitted analysis task")

	go s.run(taskCtx, cancel, uri, id, doc)

	return id, true
}

func (s *Scheduler) run(ctx context.Context, cancel context.CancelFunc, uri string, id uuid.UUID, doc *Document) {
	defer s.wg.Done()
	defer cancel()

	logger := zerolog.Ctx(ctx)

	res, err := s.analyzer.Analyze(ctx, doc)
	if err != nil {
		logger.Debug().Err(err).Msg("analysis task abandoned")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.files[uri]
	if cur == nil || cur.task != id || ctx.Err() != nil {
		logger.Debug().Msg("analysis task superseded")
		return
	}

	s.documents.storeResult(doc, res)
	if s.publish != nil {
		s.publish(ctx, res)
	}
	logger.Debug().Int("diagnostics", len(res.Diagnostics)).Msg("published analysis result")
}

// Latest returns the last published result for uri.
func (s *Scheduler) Latest(uri string) (*Result, bool) {
	return s.documents.Result(uri)
}

// Close forgets a document and cancels its in-flight task.
func (s *Scheduler) Close(uri string) {
	uri = normalizeURI(uri)
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.files[uri]; ok {
		st.cancel()
		delete(s.files, uri)
	}
	s.documents.Delete(uri)
}

// Wait blocks until every submitted task has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Shutdown cancels all tasks and waits for them.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.stop()
	s.mu.Unlock()
	s.wg.Wait()
}
