package session

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "session.db"), true)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndGetOutcome(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveOutcome(&Outcome{SessionID: "s1", PayloadJSON: `{"error":"boom"}`, Source: "api"}); err != nil {
		t.Fatalf("save outcome: %v", err)
	}
	got, err := store.GetOutcome("s1")
	if err != nil {
		t.Fatalf("get outcome: %v", err)
	}
	if got.PayloadJSON != `{"error":"boom"}` {
		t.Fatalf("unexpected payload %q", got.PayloadJSON)
	}
}

func TestOutcomeOverwrittenPerSubmission(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveOutcome(&Outcome{SessionID: "s1", PayloadJSON: `{"predicted_salary":1}`}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveOutcome(&Outcome{SessionID: "s1", PayloadJSON: `{"predicted_salary":2}`}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetOutcome("s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PayloadJSON != `{"predicted_salary":2}` {
		t.Fatalf("expected latest payload, got %q", got.PayloadJSON)
	}
}

func TestSubmissionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	actual := 140000.0
	sub := &Submission{
		SessionID:    "s2",
		Role:         "Data Scientist",
		Location:     "Germany (DE)",
		Industry:     "Tech / Software",
		Experience:   "4",
		Gender:       "Female",
		ActualSalary: &actual,
	}
	if err := store.SaveSubmission(sub); err != nil {
		t.Fatalf("save submission: %v", err)
	}

	got, err := store.GetSubmission("s2")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got.Role != sub.Role || got.Location != sub.Location || got.Industry != sub.Industry {
		t.Fatalf("submission fields lost: %+v", got)
	}
	if got.ActualSalary == nil || *got.ActualSalary != actual {
		t.Fatalf("actual salary lost: %+v", got.ActualSalary)
	}
}

func TestGetMissingSession(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.GetOutcome("absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetSubmission("absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRequiresSessionID(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveOutcome(&Outcome{PayloadJSON: "{}"}); err == nil {
		t.Fatal("expected error for empty session id")
	}
	if err := store.SaveSubmission(&Submission{}); err == nil {
		t.Fatal("expected error for empty session id")
	}
}
