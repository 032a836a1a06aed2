package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.mau.fi/whatsmeow/types"
)

// Role is a user's bot-wide role.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleRegular Role = "regular"
)

// User is a bot user profile.
type User struct {
	JID          types.JID
	Number       string
	Name         string
	Paired       bool
	Role         Role
	PairedSince  time.Time
	UsageCount   int
	WarningCount int
	LastActive   time.Time
}

// UserStore handles user profile persistence.
type UserStore struct {
	store *Store
}

// NewUserStore creates a new UserStore.
func NewUserStore(s *Store) *UserStore {
	return &UserStore{store: s}
}

// Find retrieves a user by JID. Returns (nil, nil) when the user is unknown.
func (s *UserStore) Find(jid types.JID) (*User, error) {
	row := s.store.QueryRow(`
		SELECT jid, number, name, paired, role, paired_since, usage_count, warning_count, last_active
		FROM warden_users WHERE jid = ?`, jid.ToNonAD().String())

	var u User
	var jidStr, role string
	var paired int
	var pairedSince, lastActive sql.NullInt64
	err := row.Scan(&jidStr, &u.Number, &u.Name, &paired, &role, &pairedSince, &u.UsageCount, &u.WarningCount, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	u.JID, _ = types.ParseJID(jidStr)
	u.Paired = paired != 0
	u.Role = Role(role)
	if pairedSince.Valid {
		u.PairedSince = time.Unix(pairedSince.Int64, 0)
	}
	if lastActive.Valid {
		u.LastActive = time.Unix(lastActive.Int64, 0)
	}
	return &u, nil
}

// FindOrCreate retrieves a user, creating a fresh regular profile when absent.
func (s *UserStore) FindOrCreate(jid types.JID, pushName string) (*User, error) {
	u, err := s.Find(jid)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	name := pushName
	if name == "" {
		name = "Unknown"
	}
	u = &User{
		JID:    jid.ToNonAD(),
		Number: jid.User,
		Name:   name,
		Role:   RoleRegular,
	}
	if err := s.Save(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Save upserts a user profile.
func (s *UserStore) Save(u *User) error {
	now := time.Now().Unix()
	_, err := s.store.Exec(`
		INSERT INTO warden_users (jid, number, name, paired, role, paired_since, usage_count, warning_count, last_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(jid) DO UPDATE SET
			number = excluded.number,
			name = excluded.name,
			paired = excluded.paired,
			role = excluded.role,
			paired_since = excluded.paired_since,
			usage_count = excluded.usage_count,
			warning_count = excluded.warning_count,
			last_active = excluded.last_active,
			updated_at = excluded.updated_at`,
		u.JID.ToNonAD().String(), u.Number, u.Name, boolToInt(u.Paired), string(u.Role),
		nullUnix(u.PairedSince), u.UsageCount, u.WarningCount, nullUnix(u.LastActive),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Touch bumps usage count and last-active for a user in one statement.
func (s *UserStore) Touch(jid types.JID) error {
	_, err := s.store.Exec(`
		UPDATE warden_users
		SET usage_count = usage_count + 1, last_active = ?, updated_at = ?
		WHERE jid = ?`,
		time.Now().Unix(), time.Now().Unix(), jid.ToNonAD().String())
	return err
}

// IncrementWarnings bumps the durable warning counter on a user profile.
func (s *UserStore) IncrementWarnings(jid types.JID) error {
	_, err := s.store.Exec(`
		UPDATE warden_users
		SET warning_count = warning_count + 1, updated_at = ?
		WHERE jid = ?`,
		time.Now().Unix(), jid.ToNonAD().String())
	return err
}

// Count returns the total number of known users.
func (s *UserStore) Count() (int, error) {
	var n int
	err := s.store.QueryRow(`SELECT COUNT(*) FROM warden_users`).Scan(&n)
	return n, err
}

// SumUsage returns the total command usage across all users.
func (s *UserStore) SumUsage() (int, error) {
	var n int
	err := s.store.QueryRow(`SELECT COALESCE(SUM(usage_count), 0) FROM warden_users`).Scan(&n)
	return n, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
