// Package archive persists the current form and the date-keyed archive of
// past forms in two key-value slots.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lox/inspectform/internal/models"
)

const (
	CurrentKey = "inspection.current"
	ArchiveKey = "inspection.archive"
)

// ErrCorrupt marks a slot whose payload could not be decoded.
var ErrCorrupt = errors.New("corrupt payload")

// KV is a string key-value store.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Archive is safe for concurrent use. The archive slot is rewritten whole on
// every change, so mu covers each read-modify-write.
type Archive struct {
	kv KV
	mu sync.Mutex
}

func New(kv KV) *Archive {
	return &Archive{kv: kv}
}

// LoadCurrent returns the persisted current form. A corrupt slot is reported
// as an error and as absent.
func (a *Archive) LoadCurrent() (models.FormState, bool, error) {
	raw, ok, err := a.kv.Get(CurrentKey)
	if err != nil || !ok {
		return models.FormState{}, false, err
	}
	var state models.FormState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return models.FormState{}, false, fmt.Errorf("decode current state: %w: %w", ErrCorrupt, err)
	}
	return state, true, nil
}

func (a *Archive) SaveCurrent(state models.FormState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode current state: %w", err)
	}
	return a.kv.Set(CurrentKey, string(b))
}

// Save upserts the snapshot under its header date. A blank date is a valid
// key like any other.
func (a *Archive) Save(state models.FormState) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := a.read()
	if errors.Is(err, ErrCorrupt) {
		// A corrupt archive is replaced rather than blocking every save.
		m, err = models.ArchiveMap{}, nil
	}
	if err != nil {
		return err
	}
	m[state.Header.Date] = state
	return a.write(m)
}

func (a *Archive) Load(date string) (models.FormState, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := a.read()
	if err != nil {
		return models.FormState{}, false, err
	}
	state, ok := m[date]
	return state, ok, nil
}

// Delete removes date from the archive. Deleting an absent date is a no-op.
func (a *Archive) Delete(date string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := a.read()
	if err != nil {
		return err
	}
	if _, ok := m[date]; !ok {
		return nil
	}
	delete(m, date)
	return a.write(m)
}

// ListDates returns every archived date, newest first. For YYYY-MM-DD keys
// descending lexicographic order is descending chronological order.
func (a *Archive) ListDates() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := a.read()
	if err != nil {
		return []string{}, err
	}
	dates := make([]string, 0, len(m))
	for d := range m {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (a *Archive) read() (models.ArchiveMap, error) {
	raw, ok, err := a.kv.Get(ArchiveKey)
	if err != nil {
		return models.ArchiveMap{}, err
	}
	if !ok {
		return models.ArchiveMap{}, nil
	}
	var m models.ArchiveMap
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return models.ArchiveMap{}, fmt.Errorf("decode archive: %w: %w", ErrCorrupt, err)
	}
	if m == nil {
		m = models.ArchiveMap{}
	}
	return m, nil
}

func (a *Archive) write(m models.ArchiveMap) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	return a.kv.Set(ArchiveKey, string(b))
}
