package form

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lox/inspectform/internal/logger"
	"github.com/lox/inspectform/internal/metrics"
	"github.com/lox/inspectform/internal/models"
)

// Archive is the persistence the session writes through to. Every method
// reports failures, but the session treats storage as best effort: errors
// are logged and counted, never returned to the editing caller.
type Archive interface {
	LoadCurrent() (models.FormState, bool, error)
	SaveCurrent(state models.FormState) error
	Save(state models.FormState) error
	Load(date string) (models.FormState, bool, error)
	Delete(date string) error
	ListDates() ([]string, error)
}

// Session owns the single FormState of an inspection session. All mutation
// goes through Set, and subscribers run after each commit with the committed
// snapshot, in commit order.
type Session struct {
	archive Archive
	log     zerolog.Logger

	commitMu sync.Mutex // serializes commits and notification

	mu     sync.RWMutex
	state  models.FormState
	subs   map[int]func(models.FormState)
	nextID int
}

// NewSession restores the persisted current state, or starts from defaults,
// and subscribes the write-through persistence.
func NewSession(archive Archive) *Session {
	s := &Session{
		archive: archive,
		log:     logger.Get("session"),
		subs:    make(map[int]func(models.FormState)),
	}

	state, ok, err := archive.LoadCurrent()
	if err != nil {
		s.log.Warn().Err(err).Msg("load current state, starting fresh")
		metrics.StorageReadErrorsTotal.WithLabelValues("current").Inc()
	}
	if !ok {
		state = Default()
	}
	state.Visibility = state.Visibility.Normalize()
	s.state = state

	s.Subscribe(s.persist)
	return s
}

// Get returns a copy of the current snapshot.
func (s *Session) Get() models.FormState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Set replaces the whole state. Subscribers must not call Set or Update.
func (s *Session) Set(next models.FormState) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	s.commit(next)
}

// Update applies fn to a copy of the current state and commits the result.
func (s *Session) Update(fn func(*models.FormState)) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	next := s.Get()
	fn(&next)
	s.commit(next)
}

func (s *Session) commit(next models.FormState) {
	next = next.Clone()
	next.Visibility = next.Visibility.Normalize()

	s.mu.Lock()
	s.state = next
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(models.FormState), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next.Clone())
	}
}

// Subscribe registers fn to run after every commit and returns a function
// that removes it.
func (s *Session) Subscribe(fn func(models.FormState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) persist(state models.FormState) {
	if err := s.archive.SaveCurrent(state); err != nil {
		s.log.Warn().Err(err).Msg("save current state")
		metrics.StorageWritesTotal.WithLabelValues("current", "error").Inc()
	} else {
		metrics.StorageWritesTotal.WithLabelValues("current", "ok").Inc()
	}
	if err := s.archive.Save(state); err != nil {
		s.log.Warn().Err(err).Str("date", state.Header.Date).Msg("save archive entry")
		metrics.StorageWritesTotal.WithLabelValues("archive", "error").Inc()
	} else {
		metrics.StorageWritesTotal.WithLabelValues("archive", "ok").Inc()
	}
}

func (s *Session) SetHeader(f models.HeaderField, value string) {
	value = Sanitize(value, HeaderKind(f))
	s.Update(func(st *models.FormState) { st.Header.Set(f, value) })
	metrics.FormEditsTotal.WithLabelValues("header").Inc()
}

func (s *Session) SetSection(stage models.Stage, f models.Field, value string) {
	value = Sanitize(value, FieldKind(f))
	s.Update(func(st *models.FormState) { st.SetSection(stage, f, value) })
	metrics.FormEditsTotal.WithLabelValues("section").Inc()
}

func (s *Session) SetPoint(stage models.Stage, label string, f models.Field, value string) error {
	if !stage.PointBearing() {
		return fmt.Errorf("%s: %w", stage.Key(), ErrNotPointStage)
	}
	if !slices.Contains(models.PointLabels, label) {
		return fmt.Errorf("%q: %w", label, ErrUnknownPoint)
	}
	value = Sanitize(value, FieldKind(f))
	s.Update(func(st *models.FormState) { st.SetPoint(stage, label, f, value) })
	metrics.FormEditsTotal.WithLabelValues("point").Inc()
	return nil
}

// SetVisibility toggles a field. Odor and color of point-bearing stages stay
// visible whatever is requested.
func (s *Session) SetVisibility(stage models.Stage, f models.Field, visible bool) {
	s.Update(func(st *models.FormState) { st.Visibility.Set(stage, f, visible) })
	metrics.FormEditsTotal.WithLabelValues("visibility").Inc()
}

func (s *Session) SetNote(note string) {
	s.Update(func(st *models.FormState) { st.Note = note })
	metrics.FormEditsTotal.WithLabelValues("note").Inc()
}

// Reset replaces the state with a fresh default form.
func (s *Session) Reset(confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	s.Set(Default())
	s.log.Info().Msg("form reset")
	return nil
}

// LoadArchived replaces the state with the snapshot stored for date and
// reports whether one was found.
func (s *Session) LoadArchived(date string) bool {
	state, ok := s.Archived(date)
	if !ok {
		return false
	}
	s.Set(state)
	s.log.Info().Str("date", date).Msg("archive entry loaded")
	return true
}

// Archived returns the snapshot stored for date without loading it. An
// unreadable archive is logged and reported as not found.
func (s *Session) Archived(date string) (models.FormState, bool) {
	state, ok, err := s.archive.Load(date)
	if err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("load archive entry")
		metrics.StorageReadErrorsTotal.WithLabelValues("archive").Inc()
		return models.FormState{}, false
	}
	return state, ok
}

// DeleteArchived removes the archive entry for date. The current state is
// not touched.
func (s *Session) DeleteArchived(date string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := s.archive.Delete(date); err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("delete archive entry")
		return nil
	}
	s.log.Info().Str("date", date).Msg("archive entry deleted")
	return nil
}

// Dates lists archived dates, newest first. Storage failures yield an empty
// list.
func (s *Session) Dates() []string {
	dates, err := s.archive.ListDates()
	if err != nil {
		s.log.Warn().Err(err).Msg("list archive dates")
		metrics.StorageReadErrorsTotal.WithLabelValues("archive").Inc()
		return []string{}
	}
	metrics.ArchiveEntries.Set(float64(len(dates)))
	return dates
}
