// Copyright 2025 Grug Framework
//
// SQL indexer: persists committed blocks, transactions, and events to
// PostgreSQL for downstream query services. Runs on the commit path, so it
// keeps its work to simple inserts; anything heavier belongs in a consumer
// of these tables.

package indexer

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/grugnet/grug/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS blocks (
    id           UUID PRIMARY KEY,
    height       BIGINT NOT NULL UNIQUE,
    block_time   TIMESTAMPTZ NOT NULL,
    block_hash   TEXT NOT NULL,
    app_hash     TEXT NOT NULL,
    tx_count     INT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
    id           UUID PRIMARY KEY,
    block_id     UUID NOT NULL REFERENCES blocks(id),
    tx_index     INT NOT NULL,
    sender       TEXT NOT NULL,
    gas_limit    BIGINT NOT NULL,
    gas_used     BIGINT NOT NULL,
    msg_status   TEXT NOT NULL,
    tax_status   TEXT NOT NULL,
    error        TEXT,
    outcome_json JSONB NOT NULL,
    UNIQUE (block_id, tx_index)
);

CREATE TABLE IF NOT EXISTS cron_outcomes (
    id           UUID PRIMARY KEY,
    block_id     UUID NOT NULL REFERENCES blocks(id),
    cron_index   INT NOT NULL,
    status       TEXT NOT NULL,
    gas_used     BIGINT NOT NULL,
    outcome_json JSONB NOT NULL,
    UNIQUE (block_id, cron_index)
);

CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions(sender);
`

// SQL is the PostgreSQL-backed Indexer.
type SQL struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQL opens the database, configures the pool, and ensures the schema.
func NewSQL(databaseURL string, logger *log.Logger) (*SQL, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[Indexer] ", log.LstdFlags)
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Printf("Connected and schema applied")
	return &SQL{db: db, logger: logger}, nil
}

func (s *SQL) IndexBlock(block *types.Block, outcome *types.BlockOutcome) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Deterministic ids keyed by height make re-indexing after a replay
	// idempotent.
	blockID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("block/%d", block.Info.Height)))

	if _, err := tx.Exec(
		`INSERT INTO blocks (id, height, block_time, block_hash, app_hash, tx_count)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (height) DO NOTHING`,
		blockID,
		block.Info.Height,
		block.Info.Timestamp.Time(),
		block.Info.Hash.String(),
		outcome.AppHash.String(),
		len(block.Txs),
	); err != nil {
		return err
	}

	for i, txOutcome := range outcome.TxOutcomes {
		raw, err := json.Marshal(txOutcome)
		if err != nil {
			return err
		}
		var errMsg *string
		if msg := txOutcome.MsgOutcome.Error(); msg != "" {
			errMsg = &msg
		} else if msg := txOutcome.TaxOutcome.Error(); msg != "" {
			errMsg = &msg
		}
		txID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("tx/%d/%d", block.Info.Height, i)))
		if _, err := tx.Exec(
			`INSERT INTO transactions (id, block_id, tx_index, sender, gas_limit, gas_used, msg_status, tax_status, error, outcome_json)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (block_id, tx_index) DO NOTHING`,
			txID,
			blockID,
			i,
			block.Txs[i].Sender.String(),
			block.Txs[i].GasLimit,
			txOutcome.GasUsed(),
			string(txOutcome.MsgOutcome.Status),
			string(txOutcome.TaxOutcome.Status),
			errMsg,
			raw,
		); err != nil {
			return err
		}
	}

	for i, cron := range outcome.CronOutcomes {
		raw, err := json.Marshal(cron)
		if err != nil {
			return err
		}
		cronID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("cron/%d/%d", block.Info.Height, i)))
		if _, err := tx.Exec(
			`INSERT INTO cron_outcomes (id, block_id, cron_index, status, gas_used, outcome_json)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (block_id, cron_index) DO NOTHING`,
			cronID,
			blockID,
			i,
			string(cron.Status),
			cron.GasUsed,
			raw,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQL) Close() error {
	return s.db.Close()
}
