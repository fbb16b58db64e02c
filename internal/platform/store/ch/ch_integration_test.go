//go:build integration_ch
// +build integration_ch

package ch

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startClickhouse(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.8-alpine",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"CLICKHOUSE_DB":       "default",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "secret",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("9000/tcp"),
			wait.ForLog("Ready for connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start clickhouse container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "9000/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("clickhouse://default:secret@%s:%s/default", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func TestOpen_And_Batch_Integration(t *testing.T) {
	dsn, stop := startClickhouse(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	cl, err := Open(ctx, Config{URL: dsn, Role: "integration"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = cl.Close() }()

	if err := cl.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	if err := cl.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS t_probe (
			run_id String,
			event_key String,
			frame Int64
		) ENGINE = MergeTree ORDER BY (run_id, frame)
	`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	defer func() { _ = cl.Exec(ctx, "DROP TABLE IF EXISTS t_probe") }()

	batch, err := cl.PrepareBatch(ctx, "INSERT INTO t_probe (run_id, event_key, frame)")
	if err != nil {
		t.Fatalf("prepare batch: %v", err)
	}
	if err := batch.Append("run-1", "falkner", int64(43200)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := batch.Append("run-1", "bugsy", int64(86400)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := batch.Send(); err != nil {
		t.Fatalf("send: %v", err)
	}

	rows, err := cl.Query(ctx, "SELECT event_key, frame FROM t_probe WHERE run_id = ? ORDER BY frame", "run-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		var frame int64
		if err := rows.Scan(&key, &frame); err != nil {
			t.Fatalf("scan: %v", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows err: %v", err)
	}
	if len(keys) != 2 || keys[0] != "falkner" || keys[1] != "bugsy" {
		t.Fatalf("unexpected rows back: %v", keys)
	}
}
