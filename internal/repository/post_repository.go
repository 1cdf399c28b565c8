package repository

import (
	"context"

	"marketpulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
    id         BIGSERIAL   PRIMARY KEY,
    posted_at  TIMESTAMPTZ NOT NULL,
    btc_price  NUMERIC     NOT NULL,
    eth_price  NUMERIC     NOT NULL,
    body       TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_posted_at
    ON posts (posted_at DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostRepository archives every published post.
type PostRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPostRepository(pool PgxPool, tracer trace.Tracer) *PostRepository {
	return &PostRepository{pool: pool, tracer: tracer}
}

func (r *PostRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "post-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createPostsTable)
	return err
}

func (r *PostRepository) SavePost(ctx context.Context, post domain.Post) error {
	_, span := r.tracer.Start(ctx, "post-repo.save-post")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO posts (posted_at, btc_price, eth_price, body)
		 VALUES ($1, $2, $3, $4)`,
		post.Timestamp, post.BTCPrice, post.ETHPrice, post.Text,
	)
	return err
}

func (r *PostRepository) RecentPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	_, span := r.tracer.Start(ctx, "post-repo.recent-posts")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT posted_at, btc_price, eth_price, body
		 FROM posts
		 ORDER BY posted_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.Timestamp, &p.BTCPrice, &p.ETHPrice, &p.Text); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
