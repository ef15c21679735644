package repo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"notesrelay/internal/domain"
	"notesrelay/internal/sqlinline"
)

type call struct {
	query string
	args  []any
}

type stubSQL struct {
	rows  map[string][]any
	lists map[string][][]any
	errs  map[string]error
	calls []call
}

func (s *stubSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, call{query: query, args: args})
	return pgconn.CommandTag{}, s.errs[query]
}

func (s *stubSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.calls = append(s.calls, call{query: query, args: args})
	if err := s.errs[query]; err != nil {
		return simpleRow{scan: func(...any) error { return err }}
	}
	values, ok := s.rows[query]
	if !ok {
		return simpleRow{}
	}
	return simpleRow{scan: func(dest ...any) error { return assign(dest, values) }}
}

func (s *stubSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.calls = append(s.calls, call{query: query, args: args})
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	return &listRows{data: s.lists[query], idx: -1}, nil
}

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type rowsBase struct{}

func (rowsBase) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (rowsBase) Conn() *pgx.Conn                              { return nil }
func (rowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (rowsBase) Values() ([]any, error)                       { return nil, errors.New("values not supported") }
func (rowsBase) RawValues() [][]byte                          { return nil }

type listRows struct {
	rowsBase
	data [][]any
	idx  int
}

func (r *listRows) Close()     {}
func (r *listRows) Err() error { return nil }
func (r *listRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}
func (r *listRows) Scan(dest ...any) error { return assign(dest, r.data[r.idx]) }

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		v := reflect.ValueOf(values[i])
		if !v.IsValid() {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		if !v.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan: column %d is %s, destination %s", i, v.Type(), target.Type())
		}
		target.Set(v)
	}
	return nil
}

func noteColumns(id, status string, processed *string) []any {
	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []any{id, "user-1", "buy milk", processed, "todo", status, 7, 120, ts, ts}
}

func TestNoteRepositoryGetNote(t *testing.T) {
	text := "TO-DO"
	sql := &stubSQL{rows: map[string][]any{
		sqlinline.QSelectNoteByID: noteColumns("n1", "completed", &text),
	}}
	repo := NewNoteRepository(sql, nil)

	note, err := repo.GetNote(context.Background(), "n1")
	if err != nil {
		t.Fatalf("GetNote returned error: %v", err)
	}
	if note.Category != domain.CategoryTodo || note.Status != domain.NoteStatusCompleted {
		t.Fatalf("unexpected note %#v", note)
	}
	if !note.HasProcessedText() || note.TokensUsed != 7 {
		t.Fatalf("result fields not scanned: %#v", note)
	}
	if got := sql.calls[0].args; len(got) != 1 || got[0] != "n1" {
		t.Fatalf("unexpected args %#v", got)
	}
}

func TestNoteRepositoryGetNoteNotFound(t *testing.T) {
	repo := NewNoteRepository(&stubSQL{}, nil)
	if _, err := repo.GetNote(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNoteRepositoryClaimNote(t *testing.T) {
	staleBefore := time.Now().Add(-5 * time.Minute)

	t.Run("claimed", func(t *testing.T) {
		sql := &stubSQL{rows: map[string][]any{
			sqlinline.QClaimNote: noteColumns("n1", "processing", nil),
		}}
		note, err := NewNoteRepository(sql, nil).ClaimNote(context.Background(), "n1", staleBefore)
		if err != nil {
			t.Fatalf("ClaimNote returned error: %v", err)
		}
		if note.Status != domain.NoteStatusProcessing || note.ProcessedText != nil {
			t.Fatalf("unexpected note %#v", note)
		}
		if got := sql.calls[0].args[1]; got != staleBefore {
			t.Fatalf("staleBefore arg = %v", got)
		}
	})

	t.Run("lost", func(t *testing.T) {
		_, err := NewNoteRepository(&stubSQL{}, nil).ClaimNote(context.Background(), "n1", staleBefore)
		if !errors.Is(err, domain.ErrNoteBusy) {
			t.Fatalf("expected ErrNoteBusy, got %v", err)
		}
	})

	t.Run("driver error", func(t *testing.T) {
		sql := &stubSQL{errs: map[string]error{sqlinline.QClaimNote: errors.New("conn reset")}}
		_, err := NewNoteRepository(sql, nil).ClaimNote(context.Background(), "n1", staleBefore)
		if err == nil || errors.Is(err, domain.ErrNoteBusy) {
			t.Fatalf("expected wrapped driver error, got %v", err)
		}
	})
}

func TestNoteRepositoryRejectNote(t *testing.T) {
	staleBefore := time.Now().Add(-5 * time.Minute)

	t.Run("rejected", func(t *testing.T) {
		notice := "buy milk\n\n[limit]"
		sql := &stubSQL{rows: map[string][]any{
			sqlinline.QRejectNote: noteColumns("n1", "failed", &notice),
		}}
		note, err := NewNoteRepository(sql, nil).RejectNote(context.Background(), "n1", notice, staleBefore)
		if err != nil {
			t.Fatalf("RejectNote returned error: %v", err)
		}
		if note.Status != domain.NoteStatusFailed || *note.ProcessedText != notice {
			t.Fatalf("unexpected note %#v", note)
		}
		args := sql.calls[0].args
		if args[1] != notice || args[2] != staleBefore {
			t.Fatalf("unexpected args %#v", args)
		}
	})

	t.Run("completed or claimed", func(t *testing.T) {
		_, err := NewNoteRepository(&stubSQL{}, nil).RejectNote(context.Background(), "n1", "x", staleBefore)
		if !errors.Is(err, domain.ErrNoteBusy) {
			t.Fatalf("expected ErrNoteBusy, got %v", err)
		}
	})
}

func TestNoteRepositoryUpdateNotePassesNullableFields(t *testing.T) {
	sql := &stubSQL{rows: map[string][]any{
		sqlinline.QUpdateNoteResult: noteColumns("n1", "failed", nil),
	}}
	ms := 40
	_, err := NewNoteRepository(sql, nil).UpdateNote(context.Background(), "n1", domain.NoteUpdate{
		Status:           domain.NoteStatusFailed,
		ProcessingTimeMs: &ms,
	})
	if err != nil {
		t.Fatalf("UpdateNote returned error: %v", err)
	}
	args := sql.calls[0].args
	if args[1] != "failed" {
		t.Fatalf("status arg = %#v", args[1])
	}
	if p, ok := args[2].(*string); !ok || p != nil {
		t.Fatalf("processed text arg = %#v", args[2])
	}
	if p, ok := args[4].(*int); !ok || *p != 40 {
		t.Fatalf("processing time arg = %#v", args[4])
	}
}

func TestNoteRepositoryCheckUserLimit(t *testing.T) {
	sql := &stubSQL{rows: map[string][]any{
		sqlinline.QCheckUserLimit: {false, 20, 20, "free"},
	}}
	limit, err := NewNoteRepository(sql, nil).CheckUserLimit(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CheckUserLimit returned error: %v", err)
	}
	want := domain.UsageLimit{CanProcess: false, CurrentCount: 20, Limit: 20, Tier: domain.TierFree}
	if *limit != want {
		t.Fatalf("limit = %#v, want %#v", *limit, want)
	}
	if args := sql.calls[0].args; len(args) != 3 || args[1] != 20 || args[2] != 0 {
		t.Fatalf("default limit args = %#v", args)
	}
}

func TestNoteRepositoryCheckUserLimitPassesConfiguredLimits(t *testing.T) {
	sql := &stubSQL{rows: map[string][]any{
		sqlinline.QCheckUserLimit: {true, 3, 5, "free"},
	}}
	limits := domain.TierLimits{domain.TierFree: 5, domain.TierPremium: 100}
	if _, err := NewNoteRepository(sql, limits).CheckUserLimit(context.Background(), "user-1"); err != nil {
		t.Fatalf("CheckUserLimit returned error: %v", err)
	}
	if args := sql.calls[0].args; args[1] != 5 || args[2] != 100 {
		t.Fatalf("limit args = %#v", args)
	}
}

func TestNoteRepositoryIncrementMonthlyNotes(t *testing.T) {
	sql := &stubSQL{rows: map[string][]any{sqlinline.QIncrementMonthlyNotes: {3}}}
	count, err := NewNoteRepository(sql, nil).IncrementMonthlyNotes(context.Background(), "user-1")
	if err != nil || count != 3 {
		t.Fatalf("IncrementMonthlyNotes = %d, %v", count, err)
	}
}

func TestNoteRepositoryStats(t *testing.T) {
	sql := &stubSQL{
		rows: map[string][]any{
			sqlinline.QStatsNotesSummary: {10, 2, 1, 6, 1, int64(900), 250.5},
		},
		lists: map[string][][]any{
			sqlinline.QStatsNotesByCategory: {{"todo", 4}, {"idea", 6}},
			sqlinline.QStatsProfilesByTier:  {{"free", 3}, {"premium", 1}},
		},
	}
	stats, err := NewNoteRepository(sql, nil).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.TotalNotes != 10 || stats.TotalTokens != 900 || stats.AvgProcessingTimeMs != 250.5 {
		t.Fatalf("unexpected summary %#v", stats)
	}
	if stats.ByStatus[domain.NoteStatusCompleted] != 6 || stats.ByCategory[domain.CategoryIdea] != 6 {
		t.Fatalf("unexpected breakdown %#v", stats)
	}
	if stats.ProfilesByTier[domain.TierPremium] != 1 {
		t.Fatalf("unexpected tiers %#v", stats.ProfilesByTier)
	}
}

func TestNoteRepositoryStatsQueryError(t *testing.T) {
	sql := &stubSQL{
		rows: map[string][]any{sqlinline.QStatsNotesSummary: {0, 0, 0, 0, 0, int64(0), 0.0}},
		errs: map[string]error{sqlinline.QStatsProfilesByTier: errors.New("boom")},
	}
	_, err := NewNoteRepository(sql, nil).Stats(context.Background())
	if err == nil || !strings.Contains(err.Error(), "stats by tier") {
		t.Fatalf("expected tier error, got %v", err)
	}
}

func TestProfileRepositorySetTier(t *testing.T) {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sql := &stubSQL{rows: map[string][]any{
		sqlinline.QUpsertProfileTier: {"user-1", 0, "premium", ts, ts, ts},
	}}
	profiles := NewProfileRepository(sql)

	p, err := profiles.SetTier(context.Background(), "user-1", domain.TierPremium, true)
	if err != nil {
		t.Fatalf("SetTier returned error: %v", err)
	}
	if p.SubscriptionTier != domain.TierPremium || p.MonthlyNotesCount != 0 {
		t.Fatalf("unexpected profile %#v", p)
	}
	if args := sql.calls[0].args; args[1] != "premium" || args[2] != true {
		t.Fatalf("unexpected args %#v", args)
	}

	if _, err := profiles.SetTier(context.Background(), "user-1", "gold", false); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}

func TestProfileRepositoryGetProfileNotFound(t *testing.T) {
	if _, err := NewProfileRepository(&stubSQL{}).GetProfile(context.Background(), "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
