//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/store"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           uuid PRIMARY KEY,
	video_path   text NOT NULL,
	game_id      text NOT NULL,
	fps          double precision NOT NULL,
	total_frames bigint NOT NULL,
	workers      int NOT NULL,
	status       text NOT NULL,
	detections   int NOT NULL DEFAULT 0,
	intervals    int NOT NULL DEFAULT 0,
	dropped      int NOT NULL DEFAULT 0,
	degraded     boolean NOT NULL DEFAULT false,
	error        text NOT NULL DEFAULT '',
	started_at   timestamptz NOT NULL,
	finished_at  timestamptz
);
CREATE TABLE IF NOT EXISTS cut_intervals (
	run_id      uuid NOT NULL REFERENCES runs(id),
	event_key   text NOT NULL,
	label       text NOT NULL,
	start_frame bigint NOT NULL,
	end_frame   bigint NOT NULL,
	seed_frame  bigint NOT NULL,
	in_kind     text NOT NULL,
	out_kind    text NOT NULL,
	PRIMARY KEY (run_id, event_key, start_frame)
);`

func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func TestRunsAndIntervals_Integration(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		AppName: "furycut-cutlists-integration",
		PG:      store.PGConfig{Enabled: true, URL: dsn},
	})
	if err != nil {
		t.Fatalf("store open: %v", err)
	}
	defer func() { _ = st.Close(ctx) }()

	if _, err := st.PG.Exec(ctx, schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	repo := NewPG().Bind(st.PG)
	runID := "3f2a0b3e-9c61-4e5f-8a34-5d1f00aa1234"

	begin := domain.BeginRun{
		ID: runID, VideoPath: "/videos/heartgold-part1.mkv", GameID: "heartgold",
		FPS: 240, Frames: 2000000, Workers: 8, StartedAt: time.Now().UTC(),
	}
	if err := repo.BeginRun(ctx, begin); err != nil {
		t.Fatalf("begin run: %v", err)
	}

	writes := []domain.IntervalWrite{
		{RunID: runID, Key: "falkner", Label: "Gym", Start: 50000, End: 90000, Seed: 80000, InKind: "black", OutKind: "black"},
		{RunID: runID, Key: "bugsy", Label: "Gym", Start: 400000, End: 460000, Seed: 450000, InKind: "black", OutKind: "white"},
	}
	n, err := repo.WriteIntervals(ctx, writes)
	if err != nil {
		t.Fatalf("write intervals: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}

	// Second write of the same rows is a no-op
	n, err = repo.WriteIntervals(ctx, writes)
	if err != nil {
		t.Fatalf("rewrite intervals: %v", err)
	}
	if n != 0 {
		t.Fatalf("duplicate insert landed %d rows, want 0", n)
	}

	if err := repo.FinishRun(ctx, domain.FinishRun{
		ID: runID, Status: domain.RunStatusDone,
		Detections: 2, Intervals: 2, Dropped: 0, FinishedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	run, err := repo.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Status != domain.RunStatusDone || run.Intervals != 2 || run.FinishedAt == nil {
		t.Fatalf("unexpected run row: %+v", run)
	}

	rows, _, err := repo.ListRuns(ctx, domain.ListInput{GameID: "heartgold"}, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != runID {
		t.Fatalf("unexpected run listing: %+v", rows)
	}

	ivs, err := repo.ListIntervals(ctx, runID, domain.IntervalFilter{})
	if err != nil {
		t.Fatalf("list intervals: %v", err)
	}
	if len(ivs) != 2 || ivs[0].Key != "falkner" || ivs[1].Key != "bugsy" {
		t.Fatalf("unexpected interval order: %+v", ivs)
	}
	if ivs[0].Start != 50000 || ivs[0].End != 90000 {
		t.Fatalf("interval frames wrong: %+v", ivs[0])
	}
}
