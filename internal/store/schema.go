package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL creates the qpcr schema. Every statement is idempotent.
const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS qpcr;

CREATE TABLE IF NOT EXISTS qpcr.runs (
	id          BIGSERIAL PRIMARY KEY,
	assay_id    TEXT        NOT NULL,
	source      TEXT        NOT NULL,
	config_hash TEXT        NOT NULL DEFAULT '',
	stages      TEXT[]      NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS runs_assay_idx ON qpcr.runs (assay_id, created_at DESC);

CREATE TABLE IF NOT EXISTS qpcr.efficiencies (
	run_id         BIGINT           NOT NULL REFERENCES qpcr.runs (id) ON DELETE CASCADE,
	gene           TEXT             NOT NULL,
	slope          DOUBLE PRECISION NOT NULL,
	intercept      DOUBLE PRECISION NOT NULL,
	std_err        DOUBLE PRECISION NOT NULL,
	r              DOUBLE PRECISION NOT NULL,
	p_value        DOUBLE PRECISION NOT NULL,
	efficiency_pct DOUBLE PRECISION NOT NULL,
	points         JSONB            NOT NULL DEFAULT '[]',
	PRIMARY KEY (run_id, gene)
);

CREATE TABLE IF NOT EXISTS qpcr.expressions (
	run_id    BIGINT NOT NULL REFERENCES qpcr.runs (id) ON DELETE CASCADE,
	target    TEXT   NOT NULL,
	reference TEXT   NOT NULL,
	dropped   INT    NOT NULL DEFAULT 0,
	result    JSONB  NOT NULL,
	PRIMARY KEY (run_id, target, reference)
);

CREATE TABLE IF NOT EXISTS qpcr.polysome_profiles (
	run_id    BIGINT NOT NULL REFERENCES qpcr.runs (id) ON DELETE CASCADE,
	gene      TEXT   NOT NULL,
	condition TEXT   NOT NULL,
	result    JSONB  NOT NULL,
	PRIMARY KEY (run_id, gene, condition)
);
`

// Migrate creates the qpcr schema and tables when missing
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to migrate qpcr schema: %w", err)
	}
	return nil
}
