package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"marketpulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type stubPool struct {
	execSQL  []string
	execArgs [][]any
	execErr  error
}

func (s *stubPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execSQL = append(s.execSQL, sql)
	s.execArgs = append(s.execArgs, args)
	return pgconn.CommandTag{}, s.execErr
}

func (s *stubPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func TestRunMigrationsCreatesPostsTable(t *testing.T) {
	pool := &stubPool{}
	repo := NewPostRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	if err := repo.RunMigrations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 1 || !strings.Contains(pool.execSQL[0], "CREATE TABLE IF NOT EXISTS posts") {
		t.Fatalf("unexpected migration SQL: %v", pool.execSQL)
	}
}

func TestSavePostBindsFields(t *testing.T) {
	pool := &stubPool{}
	repo := NewPostRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	post := domain.Post{
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		BTCPrice:  50000,
		ETHPrice:  3000,
		Text:      "body",
	}
	if err := repo.SavePost(context.Background(), post); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execArgs) != 1 || len(pool.execArgs[0]) != 4 {
		t.Fatalf("unexpected args: %v", pool.execArgs)
	}
	if pool.execArgs[0][1] != 50000.0 || pool.execArgs[0][3] != "body" {
		t.Fatalf("unexpected bound values: %v", pool.execArgs[0])
	}
}

func TestSavePostError(t *testing.T) {
	pool := &stubPool{execErr: errors.New("db down")}
	repo := NewPostRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	if err := repo.SavePost(context.Background(), domain.Post{}); err == nil {
		t.Fatal("expected error")
	}
}
