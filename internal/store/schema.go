package store

import (
	"database/sql"
	"fmt"
)

// addedColumns lists columns introduced after a table was first created.
var addedColumns = []struct {
	table, column, ddl string
}{
	{"subscriptions", "anchor_day", "INTEGER NOT NULL DEFAULT 0"},
}

// addMissingColumns brings tables created by older builds up to schemaSQL.
func addMissingColumns(db *sql.DB) error {
	for _, c := range addedColumns {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", c.table, c.column).Scan(&n)
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", c.table, err)
		}
		if n > 0 {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.column, c.ddl)); err != nil {
			return fmt.Errorf("adding %s.%s: %w", c.table, c.column, err)
		}
	}
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cards (
    id                   TEXT PRIMARY KEY,
    position             INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    bank                 TEXT NOT NULL DEFAULT '',
    last_four            TEXT NOT NULL DEFAULT '',
    billing_day          INTEGER NOT NULL,
    due_day              INTEGER NOT NULL,
    credit_limit         TEXT NOT NULL,
    current_usage        TEXT NOT NULL,
    monthly_budget       TEXT NOT NULL,
    fee_month            INTEGER NOT NULL DEFAULT 0,
    fee_amount           TEXT NOT NULL DEFAULT '0',
    fee_remind           INTEGER NOT NULL DEFAULT 0,
    limit_type           TEXT NOT NULL DEFAULT '',
    limit_last_request   TEXT,
    limit_frequency      INTEGER NOT NULL DEFAULT 0,
    limit_next_eligible  TEXT,
    limit_remind         INTEGER NOT NULL DEFAULT 0,
    archived             INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS payment_records (
    id                   TEXT PRIMARY KEY,
    card_id              TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    paid_date            TEXT NOT NULL,
    amount               TEXT NOT NULL,
    cycle                TEXT NOT NULL,
    completeness         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id                   TEXT PRIMARY KEY,
    position             INTEGER NOT NULL,
    card_id              TEXT NOT NULL,
    kind                 TEXT NOT NULL,
    category             TEXT NOT NULL DEFAULT '',
    description          TEXT NOT NULL DEFAULT '',
    date                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    plan_id              TEXT,
    plan_seq             INTEGER,
    plan_total           INTEGER,
    subscription_id      TEXT,
    foreign_currency     TEXT,
    foreign_amount       TEXT,
    foreign_rate         TEXT
);

CREATE TABLE IF NOT EXISTS subscriptions (
    id                   TEXT PRIMARY KEY,
    position             INTEGER NOT NULL,
    card_id              TEXT NOT NULL,
    name                 TEXT NOT NULL,
    category             TEXT NOT NULL DEFAULT '',
    amount               TEXT NOT NULL,
    cadence              TEXT NOT NULL,
    next_charge_date     TEXT NOT NULL,
    anchor_day           INTEGER NOT NULL DEFAULT 0,
    active               INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS installment_plans (
    id                   TEXT PRIMARY KEY,
    position             INTEGER NOT NULL,
    card_id              TEXT NOT NULL,
    description          TEXT NOT NULL,
    total_amount         TEXT NOT NULL,
    tenor                INTEGER NOT NULL,
    monthly_amount       TEXT NOT NULL,
    start_date           TEXT NOT NULL,
    admin_fee            TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS limit_increase_records (
    id                   TEXT PRIMARY KEY,
    position             INTEGER NOT NULL,
    card_id              TEXT NOT NULL,
    request_date         TEXT NOT NULL,
    action_date          TEXT,
    requested_amount     TEXT NOT NULL,
    type                 TEXT NOT NULL,
    frequency_months     INTEGER NOT NULL DEFAULT 0,
    status               TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reminders (
    id                   TEXT PRIMARY KEY,
    fire_at              TEXT NOT NULL,
    title                TEXT NOT NULL,
    body                 TEXT NOT NULL,
    payload              TEXT NOT NULL DEFAULT '{}',
    queued_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_card_date ON transactions(card_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_plan ON transactions(plan_id);
CREATE INDEX IF NOT EXISTS idx_payments_card ON payment_records(card_id);
CREATE INDEX IF NOT EXISTS idx_reminders_fire ON reminders(fire_at);
`
