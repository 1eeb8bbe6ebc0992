package access

import (
	"context"
	"net/http"
	"testing"
	"time"

	"campusgate/internal/cooldown"
	"campusgate/internal/domain"
	"campusgate/internal/face"
	"campusgate/internal/model"
	"campusgate/internal/verify"
)

type fakeStore struct {
	students   map[string]*model.Student
	labs       map[uint]*model.Lab
	labLogs    []*model.LabLog
	hostelLogs []*model.HostelLog
	nextID     uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students: map[string]*model.Student{},
		labs:     map[uint]*model.Lab{},
	}
}

func (f *fakeStore) StudentBySID(_ context.Context, sid string) (*model.Student, error) {
	return f.students[sid], nil
}

func (f *fakeStore) LabByID(_ context.Context, id uint) (*model.Lab, error) {
	return f.labs[id], nil
}

func (f *fakeStore) LabByCode(_ context.Context, code string) (*model.Lab, error) {
	for _, l := range f.labs {
		if l.Code == code {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateLab(_ context.Context, l *model.Lab) error {
	f.nextID++
	l.ID = f.nextID
	f.labs[l.ID] = l
	return nil
}

func (f *fakeStore) LastLabAction(_ context.Context, labID uint, sid string) (string, error) {
	for i := len(f.labLogs) - 1; i >= 0; i-- {
		if f.labLogs[i].LabID == labID && f.labLogs[i].StudentSID == sid {
			return f.labLogs[i].Action, nil
		}
	}
	return "", nil
}

func (f *fakeStore) AppendLabLog(_ context.Context, log *model.LabLog) error {
	f.nextID++
	log.ID = f.nextID
	log.TS = time.Now().UTC()
	f.labLogs = append(f.labLogs, log)
	return nil
}

func (f *fakeStore) LabInsideCount(_ context.Context, labID uint) (int, error) {
	latest := map[string]string{}
	for _, log := range f.labLogs {
		if log.LabID == labID {
			latest[log.StudentSID] = log.Action
		}
	}
	n := 0
	for _, action := range latest {
		if action == model.ActionEntry {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) LastHostelAction(_ context.Context, sid string) (string, error) {
	for i := len(f.hostelLogs) - 1; i >= 0; i-- {
		if f.hostelLogs[i].StudentSID == sid {
			return f.hostelLogs[i].Action, nil
		}
	}
	return "", nil
}

func (f *fakeStore) AppendHostelLog(_ context.Context, log *model.HostelLog) error {
	f.nextID++
	log.ID = f.nextID
	log.TS = time.Now().UTC()
	f.hostelLogs = append(f.hostelLogs, log)
	return nil
}

func testService(t *testing.T, window time.Duration) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.students["STU1001"] = &model.Student{SID: "STU1001", Name: "Asha", Fingerprint: "fp_1"}
	store.labs[1] = &model.Lab{ID: 1, Code: "LAB01", Name: "Networks Lab"}
	gate := verify.NewGate(face.New("", true), face.NewStore(t.TempDir()), 0.6, "", false)
	return NewService(store, gate, cooldown.New(window)), store
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("got nil error, want status %d", status)
	}
	if de := domain.AsError(err); de.Status != status {
		t.Fatalf("got status %d (%s), want %d", de.Status, de.Message, status)
	}
}

func TestResolveAction(t *testing.T) {
	t.Parallel()

	cases := []struct {
		action, last, want string
	}{
		{model.ActionEntry, "", model.ActionEntry},
		{model.ActionExit, model.ActionEntry, model.ActionExit},
		{model.ActionToggle, "", model.ActionEntry},
		{model.ActionToggle, model.ActionEntry, model.ActionExit},
		{model.ActionToggle, model.ActionExit, model.ActionEntry},
	}
	for _, tc := range cases {
		got, err := resolveAction(tc.action, tc.last)
		if err != nil {
			t.Errorf("resolveAction(%s, %s): %v", tc.action, tc.last, err)
			continue
		}
		if got != tc.want {
			t.Errorf("resolveAction(%s, %s) = %s, want %s", tc.action, tc.last, got, tc.want)
		}
	}
	if _, err := resolveAction("SIDEWAYS", ""); err == nil {
		t.Error("unknown action accepted")
	}
}

func TestLogLabToggle(t *testing.T) {
	t.Parallel()

	svc, store := testService(t, 0)
	in := LogInput{LabID: 1, SID: "STU1001", Action: model.ActionToggle, Fingerprint: "fp_1"}

	res, err := svc.LogLab(context.Background(), in)
	if err != nil {
		t.Fatalf("LogLab: %v", err)
	}
	if res.Action != model.ActionEntry {
		t.Errorf("first toggle resolved to %s, want ENTRY", res.Action)
	}

	res, err = svc.LogLab(context.Background(), in)
	if err != nil {
		t.Fatalf("second LogLab: %v", err)
	}
	if res.Action != model.ActionExit {
		t.Errorf("second toggle resolved to %s, want EXIT", res.Action)
	}
	if len(store.labLogs) != 2 {
		t.Errorf("got %d log rows, want 2", len(store.labLogs))
	}
}

func TestLogLabCooldownIgnored(t *testing.T) {
	t.Parallel()

	svc, store := testService(t, 30*time.Second)
	in := LogInput{LabID: 1, SID: "STU1001", Action: model.ActionToggle, Fingerprint: "fp_1"}

	if _, err := svc.LogLab(context.Background(), in); err != nil {
		t.Fatalf("LogLab: %v", err)
	}
	res, err := svc.LogLab(context.Background(), in)
	if err != nil {
		t.Fatalf("LogLab in cooldown: %v", err)
	}
	if !res.Ignored {
		t.Error("scan in cooldown window not ignored")
	}
	if len(store.labLogs) != 1 {
		t.Errorf("got %d log rows, want 1", len(store.labLogs))
	}
}

func TestLogLabUnknownLab(t *testing.T) {
	t.Parallel()

	svc, _ := testService(t, 0)
	_, err := svc.LogLab(context.Background(), LogInput{LabID: 99, SID: "STU1001", Action: model.ActionEntry})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestLogLabFingerprintMismatch(t *testing.T) {
	t.Parallel()

	svc, store := testService(t, 0)
	_, err := svc.LogLab(context.Background(), LogInput{
		LabID: 1, SID: "STU1001", Action: model.ActionEntry, Fingerprint: "fp_wrong",
	})
	wantStatus(t, err, http.StatusForbidden)
	if len(store.labLogs) != 0 {
		t.Error("rejected scan still logged")
	}
}

func TestLogHostelDefaultsGate(t *testing.T) {
	t.Parallel()

	svc, store := testService(t, 0)
	res, err := svc.LogHostel(context.Background(), LogInput{
		SID: "STU1001", Action: model.ActionToggle, Fingerprint: "fp_1",
	})
	if err != nil {
		t.Fatalf("LogHostel: %v", err)
	}
	if res.Gate != "Main Gate" {
		t.Errorf("gate %q, want Main Gate default", res.Gate)
	}
	if res.Action != model.ActionEntry {
		t.Errorf("action %s, want ENTRY", res.Action)
	}
	if store.hostelLogs[0].Gate != "Main Gate" {
		t.Errorf("persisted gate %q, want Main Gate", store.hostelLogs[0].Gate)
	}
}

func TestLogHostelUnknownStudent(t *testing.T) {
	t.Parallel()

	svc, _ := testService(t, 0)
	_, err := svc.LogHostel(context.Background(), LogInput{SID: "nope", Action: model.ActionEntry})
	wantStatus(t, err, http.StatusNotFound)
}

func TestLabInside(t *testing.T) {
	t.Parallel()

	svc, store := testService(t, 0)
	store.students["STU1002"] = &model.Student{SID: "STU1002", Fingerprint: "fp_2"}

	svc.LogLab(context.Background(), LogInput{LabID: 1, SID: "STU1001", Action: model.ActionEntry, Fingerprint: "fp_1"})
	svc.LogLab(context.Background(), LogInput{LabID: 1, SID: "STU1002", Action: model.ActionEntry, Fingerprint: "fp_2"})
	svc.LogLab(context.Background(), LogInput{LabID: 1, SID: "STU1001", Action: model.ActionExit, Fingerprint: "fp_1"})

	n, err := svc.LabInside(context.Background(), 1)
	if err != nil {
		t.Fatalf("LabInside: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d inside, want 1", n)
	}

	_, err = svc.LabInside(context.Background(), 99)
	wantStatus(t, err, http.StatusNotFound)
}

func TestAddLabDuplicate(t *testing.T) {
	t.Parallel()

	svc, _ := testService(t, 0)
	_, err := svc.AddLab(context.Background(), "LAB01", "Another Lab", "")
	wantStatus(t, err, http.StatusConflict)
}
