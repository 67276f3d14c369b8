package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hoopmetrics/projection-api/internal/artifact"
	"github.com/hoopmetrics/projection-api/internal/clean"
	"github.com/hoopmetrics/projection-api/internal/features"
	"github.com/hoopmetrics/projection-api/internal/ingest"
	"github.com/hoopmetrics/projection-api/internal/models"
	"github.com/hoopmetrics/projection-api/internal/store"
)

type staticSource struct {
	rows []models.RawRow
	err  error
}

func (s *staticSource) Fetch(context.Context) ([]models.RawRow, error) {
	return s.rows, s.err
}

func rawRow(name string, date string, points string) models.RawRow {
	return models.RawRow{
		GameDate:         date,
		FirstName:        name,
		LastName:         "Doe",
		PlayerTeamCity:   "Boston",
		PlayerTeamName:   "Celtics",
		OpponentTeamCity: "Utah",
		OpponentTeamName: "Jazz",
		Home:             "1",
		Win:              "1",
		NumMinutes:       "31:30",
		Points:           points,
	}
}

// recordingArchive captures enqueued rows in place of the ClickHouse sink.
type recordingArchive struct {
	names []string
	recs  []models.GameStatRecord
}

func (a *recordingArchive) EnqueueBatch(playerNames []string, recs []models.GameStatRecord) {
	a.names = append(a.names, playerNames...)
	a.recs = append(a.recs, recs...)
}

func newRunner(src Source, st store.Store, artifacts artifact.Store, cap int) *Runner {
	logger := zap.NewNop()
	return NewRunner(Config{
		Source:       src,
		Cleaner:      clean.New(nil),
		Ingestor:     ingest.NewIngestor(st, logger),
		Retention:    ingest.NewRetentionManager(st, cap, logger),
		Store:        st,
		Engine:       features.NewEngine(0, 0),
		Artifacts:    artifacts,
		ArtifactName: "player-projection-model",
		Logger:       logger,
	})
}

func TestRunIngestsAndPublishes(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	artifacts := artifact.NewMemoryStore()

	src := &staticSource{rows: []models.RawRow{
		rawRow("John", "2025-04-01", "20"),
		rawRow("John", "2025-04-03", "25"),
		rawRow("John", "2025-04-05", "30"),
		rawRow("John", "bad-date", "99"), // dropped by cleaner
	}}

	if err := newRunner(src, st, artifacts, 100).Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if n, _ := st.Count(ctx); n != 3 {
		t.Errorf("store has %d rows, want 3", n)
	}
	if _, err := artifacts.Download(ctx, "player-projection-model"); err != nil {
		t.Errorf("artifact not published: %v", err)
	}
}

func TestRunSkipsRetrainWithoutNewData(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	artifacts := artifact.NewMemoryStore()

	src := &staticSource{rows: []models.RawRow{
		rawRow("John", "2025-04-01", "20"),
		rawRow("John", "2025-04-03", "25"),
	}}
	runner := newRunner(src, st, artifacts, 100)

	if err := runner.Run(ctx); err != nil {
		t.Fatal(err)
	}

	// Second run sees the same feed: nothing is new, retrain must be
	// skipped without error. Make any publish attempt fail loudly.
	artifacts.FailUploads = true
	if err := runner.Run(ctx); err != nil {
		t.Errorf("no-new-data cycle must not error, got %v", err)
	}
}

func TestRunArchivesOnlyCommittedRows(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	archive := &recordingArchive{}

	src := &staticSource{rows: []models.RawRow{
		rawRow("John", "2025-04-01", "20"),
		rawRow("John", "2025-04-03", "25"),
	}}
	runner := newRunner(src, st, artifact.NewMemoryStore(), 100)
	runner.cfg.Archiver = archive

	if err := runner.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(archive.recs) != 2 {
		t.Fatalf("first cycle archived %d rows, want 2", len(archive.recs))
	}
	if archive.names[0] != "John Doe" || archive.recs[0].PlayerID == 0 {
		t.Errorf("archived rows missing resolved identity: %q id=%d",
			archive.names[0], archive.recs[0].PlayerID)
	}

	// Second cycle over the same feed: everything is at or below the
	// high-water mark, so nothing new may reach the archive.
	if err := runner.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(archive.recs) != 2 {
		t.Errorf("stale cycle re-archived rows: %d total, want 2", len(archive.recs))
	}
}

func TestRunEnforcesCap(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	artifacts := artifact.NewMemoryStore()

	var rows []models.RawRow
	for d := 1; d <= 9; d++ {
		rows = append(rows, rawRow("John", "2025-04-0"+string(rune('0'+d)), "20"))
	}
	src := &staticSource{rows: rows}

	if err := newRunner(src, st, artifacts, 5).Run(ctx); err != nil {
		t.Fatal(err)
	}

	n, _ := st.Count(ctx)
	if n != 5 {
		t.Errorf("store has %d rows after cap enforcement, want 5", n)
	}
	all, _ := st.AllRows(ctx)
	if got := all[0].GameDate.Day(); got != 5 {
		t.Errorf("oldest surviving day %d, want 5 (oldest evicted first)", got)
	}
}

func TestPublishFailureKeepsIngestedBatch(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	artifacts := artifact.NewMemoryStore()
	artifacts.FailUploads = true

	src := &staticSource{rows: []models.RawRow{
		rawRow("John", "2025-04-01", "20"),
		rawRow("John", "2025-04-03", "25"),
	}}

	err := newRunner(src, st, artifacts, 100).Run(ctx)
	if !errors.Is(err, models.ErrPipeline) {
		t.Errorf("expected ErrPipeline, got %v", err)
	}

	// Failure domains are independent: the batch stays committed.
	if n, _ := st.Count(ctx); n != 2 {
		t.Errorf("store has %d rows, want 2 despite publish failure", n)
	}
}

func TestSourceFailureAbortsRun(t *testing.T) {
	st := store.NewMemory()
	src := &staticSource{err: errors.New("feed offline")}

	err := newRunner(src, st, artifact.NewMemoryStore(), 100).Run(context.Background())
	if !errors.Is(err, models.ErrPipeline) {
		t.Errorf("expected ErrPipeline, got %v", err)
	}
}

func TestParseCSV(t *testing.T) {
	data := `firstName,lastName,gameDateTimeEst,playerteamCity,playerteamName,opponentteamCity,opponentteamName,home,win,numMinutes,points,ignoredColumn
John,Doe,2025-04-01,Boston,Celtics,Utah,Jazz,1,1,31:30,20,x
Jane,Roe,2025-04-02,LA,Lakers,Miami,Heat,0,0,28,15,y
`
	rows, err := parseCSV(context.Background(), strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("parsed %d rows, want 2", len(rows))
	}
	if rows[0].FirstName != "John" || rows[0].NumMinutes != "31:30" {
		t.Errorf("row 0 mis-mapped: %+v", rows[0])
	}
	if rows[1].PlayerTeamCity != "LA" || rows[1].Points != "15" {
		t.Errorf("row 1 mis-mapped: %+v", rows[1])
	}
}
