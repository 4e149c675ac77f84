package database

// schema is the full application schema. Every statement is idempotent
// so it can be applied on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    enabled         INTEGER NOT NULL DEFAULT 1,
    can_like        INTEGER NOT NULL DEFAULT 1,
    can_retweet     INTEGER NOT NULL DEFAULT 1,
    can_comment     INTEGER NOT NULL DEFAULT 1,
    use_ai          INTEGER NOT NULL DEFAULT 0,
    comment_style   TEXT NOT NULL DEFAULT 'friendly',
    cookies         BLOB,
    validated       INTEGER,
    last_validated  INTEGER,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_enabled ON accounts(enabled);

CREATE TABLE IF NOT EXISTS activities (
    id            TEXT PRIMARY KEY,
    target_url    TEXT NOT NULL,
    account_name  TEXT NOT NULL,
    liked         INTEGER NOT NULL DEFAULT 0,
    retweeted     INTEGER NOT NULL DEFAULT 0,
    commented     INTEGER NOT NULL DEFAULT 0,
    comment_text  TEXT NOT NULL DEFAULT '',
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at);
CREATE INDEX IF NOT EXISTS idx_activities_account ON activities(account_name);

CREATE TABLE IF NOT EXISTS settings (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    updated_at  INTEGER NOT NULL
);
`
