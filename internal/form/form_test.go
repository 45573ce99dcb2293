package form

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lox/inspectform/internal/models"
)

// memArchive is an in-memory Archive. When fail is set every call errors.
type memArchive struct {
	mu      sync.Mutex
	current *models.FormState
	entries models.ArchiveMap
	fail    error
}

func newMemArchive() *memArchive {
	return &memArchive{entries: models.ArchiveMap{}}
}

func (m *memArchive) LoadCurrent() (models.FormState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return models.FormState{}, false, m.fail
	}
	if m.current == nil {
		return models.FormState{}, false, nil
	}
	return m.current.Clone(), true, nil
}

func (m *memArchive) SaveCurrent(s models.FormState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	c := s.Clone()
	m.current = &c
	return nil
}

func (m *memArchive) Save(s models.FormState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.entries[s.Header.Date] = s.Clone()
	return nil
}

func (m *memArchive) Load(date string) (models.FormState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return models.FormState{}, false, m.fail
	}
	s, ok := m.entries[date]
	return s.Clone(), ok, nil
}

func (m *memArchive) Delete(date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	delete(m.entries, date)
	return nil
}

func (m *memArchive) ListDates() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return []string{}, m.fail
	}
	var dates []string
	for d := range m.entries {
		dates = append(dates, d)
	}
	return dates, nil
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
		want string
	}{
		{"12.3.4abc", KindNonNegative, "12.34"},
		{"-5.2", KindNonNegative, "5.2"},
		{"-5.2", KindSigned, "-5.2"},
		{"5-2", KindSigned, "52"},
		{"--1", KindSigned, "-1"},
		{".5.", KindNonNegative, ".5"},
		{"abc", KindNonNegative, ""},
		{"７.２", KindNonNegative, "."},
		{"微 臭", KindText, "微 臭"},
		{"", KindSigned, ""},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in, tt.kind); got != tt.want {
			t.Errorf("Sanitize(%q, %d) = %q, want %q", tt.in, tt.kind, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	st := Default()

	if diff := cmp.Diff(models.PointLabels, st.PointLabels); diff != "" {
		t.Errorf("point labels mismatch (-want +got):\n%s", diff)
	}
	if st.Header.Date != "" || st.Header.Weekday != "" {
		t.Error("fresh header should be blank")
	}
	if st.Visibility.Visible(models.StageInfluent, models.FieldHeadLoss) {
		t.Error("influent head loss should be hidden by default")
	}
	if !st.Visibility.Visible(models.StageAerobicUpper, models.FieldHeadLoss) {
		t.Error("aerobic upper head loss should be visible by default")
	}
	if st.Visibility != st.Visibility.Normalize() {
		t.Error("default visibility must already be normalized")
	}
	if diff := cmp.Diff(Default(), st); diff != "" {
		t.Errorf("Default is not stable (-want +got):\n%s", diff)
	}
}

func TestSession_FreshStart(t *testing.T) {
	arch := newMemArchive()
	s := NewSession(arch)

	if diff := cmp.Diff(Default(), s.Get()); diff != "" {
		t.Errorf("fresh session mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_RestoresCurrent(t *testing.T) {
	arch := newMemArchive()
	saved := Default()
	saved.Header.Date = "2024-05-01"
	saved.Visibility.Set(models.StageAerobicUpper, models.FieldOdor, false)
	arch.current = &saved

	s := NewSession(arch)
	got := s.Get()
	if got.Header.Date != "2024-05-01" {
		t.Errorf("Date = %q, want restored value", got.Header.Date)
	}
	if !got.Visibility.Visible(models.StageAerobicUpper, models.FieldOdor) {
		t.Error("restored state must be normalized")
	}
}

func TestSession_PersistsEveryMutation(t *testing.T) {
	arch := newMemArchive()
	s := NewSession(arch)

	s.SetHeader(models.HeaderDate, "2024-05-01")
	s.SetHeader(models.HeaderInflowVolume, "12.3.4abc")
	s.SetHeader(models.HeaderAirTemp, "-3.5℃")

	if arch.current == nil {
		t.Fatal("current slot not written")
	}
	if arch.current.Header.InflowVolume != "12.34" {
		t.Errorf("persisted inflow = %q, want sanitized 12.34", arch.current.Header.InflowVolume)
	}
	if arch.current.Header.AirTemp != "-3.5" {
		t.Errorf("persisted air temp = %q, want -3.5", arch.current.Header.AirTemp)
	}
	snap, ok := arch.entries["2024-05-01"]
	if !ok {
		t.Fatal("archive entry for active date missing")
	}
	if diff := cmp.Diff(s.Get(), snap); diff != "" {
		t.Errorf("archive snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SubscribersSeeCommittedState(t *testing.T) {
	s := NewSession(newMemArchive())

	var seen []string
	unsubscribe := s.Subscribe(func(st models.FormState) {
		seen = append(seen, st.Note)
		if got := s.Get().Note; got != st.Note {
			t.Errorf("subscriber saw %q but Get returned %q", st.Note, got)
		}
	})

	s.SetNote("a")
	s.SetNote("b")
	unsubscribe()
	s.SetNote("c")

	if diff := cmp.Diff([]string{"a", "b"}, seen); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SnapshotsAreImmutable(t *testing.T) {
	s := NewSession(newMemArchive())
	if err := s.SetPoint(models.StageAerobicUpper, "NO.1-1", models.FieldOdor, "無臭"); err != nil {
		t.Fatal(err)
	}

	snap := s.Get()
	snap.SetPoint(models.StageAerobicUpper, "NO.1-1", models.FieldOdor, "changed")

	cur := s.Get()
	if got := cur.PointData(models.StageAerobicUpper)["NO.1-1"].Odor; got != "無臭" {
		t.Errorf("session state mutated through snapshot: %q", got)
	}
}

func TestSession_SetPoint(t *testing.T) {
	s := NewSession(newMemArchive())

	if err := s.SetPoint(models.StageAerobicUpper, "NO.1-1", models.FieldOdor, "微 臭"); err != nil {
		t.Fatalf("SetPoint: %v", err)
	}
	if err := s.SetPoint(models.StageAerobicLower, "NO.2-2", models.FieldDO, "2.a5"); err != nil {
		t.Fatalf("SetPoint: %v", err)
	}
	if err := s.SetPoint(models.StageInfluent, "NO.1-1", models.FieldOdor, "x"); !errors.Is(err, ErrNotPointStage) {
		t.Errorf("influent err = %v, want ErrNotPointStage", err)
	}
	if err := s.SetPoint(models.StageAerobicUpper, "NO.9-9", models.FieldOdor, "x"); !errors.Is(err, ErrUnknownPoint) {
		t.Errorf("unknown point err = %v, want ErrUnknownPoint", err)
	}

	st := s.Get()
	if got := st.PointData(models.StageAerobicUpper)["NO.1-1"].Odor; got != "微 臭" {
		t.Errorf("odor = %q", got)
	}
	if got := st.PointData(models.StageAerobicLower)["NO.2-2"].DO; got != "2.5" {
		t.Errorf("DO = %q, want sanitized 2.5", got)
	}
}

func TestSession_SetVisibilityKeepsForcedFields(t *testing.T) {
	s := NewSession(newMemArchive())

	s.SetVisibility(models.StageAerobicLower, models.FieldColor, false)
	s.SetVisibility(models.StageAerobicLower, models.FieldPH, false)
	s.SetVisibility(models.StageInfluent, models.FieldColor, false)

	v := s.Get().Visibility
	if !v.Visible(models.StageAerobicLower, models.FieldColor) {
		t.Error("aerobic lower color must stay visible")
	}
	if v.Visible(models.StageAerobicLower, models.FieldPH) {
		t.Error("aerobic lower pH should be hidden")
	}
	if v.Visible(models.StageInfluent, models.FieldColor) {
		t.Error("influent color should be hidden")
	}
}

func TestSession_Reset(t *testing.T) {
	arch := newMemArchive()
	s := NewSession(arch)
	s.SetHeader(models.HeaderDate, "2024-05-01")
	s.SetNote("keep me")

	if err := s.Reset(false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("Reset(false) err = %v, want ErrNotConfirmed", err)
	}
	if s.Get().Note != "keep me" {
		t.Fatal("declined reset changed state")
	}

	for i := 0; i < 2; i++ {
		if err := s.Reset(true); err != nil {
			t.Fatalf("Reset: %v", err)
		}
		got, ok, err := arch.LoadCurrent()
		if err != nil || !ok {
			t.Fatalf("LoadCurrent: ok=%v err=%v", ok, err)
		}
		if diff := cmp.Diff(Default(), got); diff != "" {
			t.Errorf("reset %d: persisted state mismatch (-want +got):\n%s", i, diff)
		}
	}
	if _, ok := arch.entries["2024-05-01"]; !ok {
		t.Error("reset must not remove archive entries")
	}
}

func TestSession_LoadArchived(t *testing.T) {
	arch := newMemArchive()
	s := NewSession(arch)
	s.SetHeader(models.HeaderDate, "2024-04-30")
	s.SetNote("old")
	s.SetHeader(models.HeaderDate, "2024-05-01")
	s.SetNote("new")

	if !s.LoadArchived("2024-04-30") {
		t.Fatal("LoadArchived: not found")
	}
	// The archive entry for 2024-04-30 was written before the date changed,
	// so it still carries the old note.
	if got := s.Get(); got.Header.Date != "2024-04-30" || got.Note != "old" {
		t.Errorf("loaded state = %q/%q", got.Header.Date, got.Note)
	}

	if s.LoadArchived("1999-01-01") {
		t.Error("missing date reported found")
	}
	if s.Get().Header.Date != "2024-04-30" {
		t.Error("missing date must not change state")
	}
}

func TestSession_DeleteArchived(t *testing.T) {
	arch := newMemArchive()
	s := NewSession(arch)
	s.SetHeader(models.HeaderDate, "2024-05-01")

	if err := s.DeleteArchived("2024-05-01", false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("err = %v, want ErrNotConfirmed", err)
	}
	if _, ok := arch.entries["2024-05-01"]; !ok {
		t.Fatal("declined delete removed the entry")
	}
	if err := s.DeleteArchived("2024-05-01", true); err != nil {
		t.Fatalf("DeleteArchived: %v", err)
	}
	if _, ok := arch.entries["2024-05-01"]; ok {
		t.Error("entry still present")
	}
	if s.Get().Header.Date != "2024-05-01" {
		t.Error("delete must not touch the current state")
	}
}

func TestSession_StorageFailuresAreSwallowed(t *testing.T) {
	arch := newMemArchive()
	arch.fail = errors.New("quota exceeded")
	s := NewSession(arch)

	s.SetHeader(models.HeaderDate, "2024-05-01")
	s.SetNote("still editable")

	if got := s.Get(); got.Header.Date != "2024-05-01" || got.Note != "still editable" {
		t.Errorf("in-memory state lost: %+v", got.Header)
	}
	if dates := s.Dates(); dates == nil || len(dates) != 0 {
		t.Errorf("Dates = %#v, want empty slice", dates)
	}
	if err := s.DeleteArchived("2024-05-01", true); err != nil {
		t.Errorf("DeleteArchived surfaced storage error: %v", err)
	}
	if _, ok := s.Archived("2024-05-01"); ok {
		t.Error("Archived reported found on failing storage")
	}
	if s.LoadArchived("2024-05-01") {
		t.Error("LoadArchived reported found on failing storage")
	}
	if got := s.Get(); got.Note != "still editable" {
		t.Errorf("failed load changed state: %q", got.Note)
	}
}

func TestSession_ConcurrentEdits(t *testing.T) {
	s := NewSession(newMemArchive())

	var wg sync.WaitGroup
	for _, label := range models.PointLabels {
		wg.Add(1)
		go func(label string) {
			defer wg.Done()
			for _, f := range []models.Field{models.FieldOdor, models.FieldColor, models.FieldPH} {
				if err := s.SetPoint(models.StageAerobicLower, label, f, "1"); err != nil {
					t.Error(err)
				}
			}
		}(label)
	}
	wg.Wait()

	final := s.Get()
	data := final.PointData(models.StageAerobicLower)
	for _, label := range models.PointLabels {
		p := data[label]
		if p.Odor != "1" || p.Color != "1" || p.PH != "1" {
			t.Errorf("%s lost an edit: %+v", label, p)
		}
	}
}
