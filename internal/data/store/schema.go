package store

// schema contains all app-specific table definitions.
//
// Tables:
//   - warden_users    - User profiles with pairing state and usage counters
//   - warden_settings - Durable key/value settings (official group record)
const schema = `
CREATE TABLE IF NOT EXISTS warden_users (
    jid TEXT PRIMARY KEY,
    number TEXT NOT NULL,
    name TEXT,

    paired INTEGER NOT NULL DEFAULT 0,
    role TEXT NOT NULL DEFAULT 'regular',
    paired_since INTEGER,

    usage_count INTEGER NOT NULL DEFAULT 0,
    warning_count INTEGER NOT NULL DEFAULT 0,
    last_active INTEGER,

    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_warden_users_number ON warden_users(number);

CREATE TABLE IF NOT EXISTS warden_settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`
