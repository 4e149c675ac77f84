// Package accounts manages the pool of automation accounts: their
// capability flags, session cookies and validation state. Cookies are
// serialized with msgpack and stored as a single blob column.
package accounts

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/eacar/amplify/internal/domain"
)

// Repository handles account database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new accounts repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "accounts").Logger(),
	}
}

const accountColumns = `id, name, enabled, can_like, can_retweet, can_comment,
	use_ai, comment_style, cookies, validated, last_validated, created_at, updated_at`

// List returns all accounts ordered by creation time.
func (r *Repository) List() ([]domain.Account, error) {
	rows, err := r.db.Query(
		"SELECT " + accountColumns + " FROM accounts ORDER BY created_at ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan account row")
			continue
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// ListByIDs returns the accounts matching the given IDs, in the order
// the IDs were given. Unknown IDs are silently dropped.
func (r *Repository) ListByIDs(ids []string) ([]domain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.Query(
		"SELECT "+accountColumns+" FROM accounts WHERE id IN ("+placeholders+")", args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Account, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan account row")
			continue
		}
		byID[account.ID] = *account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	ordered := make([]domain.Account, 0, len(byID))
	for _, id := range ids {
		if account, ok := byID[id]; ok {
			ordered = append(ordered, account)
		}
	}
	return ordered, nil
}

// Get returns a single account by ID.
// Returns nil if the account doesn't exist (not an error).
func (r *Repository) Get(id string) (*domain.Account, error) {
	row := r.db.QueryRow(
		"SELECT "+accountColumns+" FROM accounts WHERE id = ?", id,
	)
	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return account, nil
}

// Create inserts a new account. A UUID is assigned when the ID is
// empty, and timestamps are set to now.
func (r *Repository) Create(account *domain.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	cookies, err := encodeCookies(account.Cookies)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO accounts (
			id, name, enabled, can_like, can_retweet, can_comment,
			use_ai, comment_style, cookies, validated, last_validated,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		account.ID, account.Name, account.Enabled,
		account.CanLike, account.CanRetweet, account.CanComment,
		account.UseAI, string(account.CommentStyle), cookies,
		boolPtrToInt(account.Validated), timePtrToUnix(account.LastValidated),
		now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create account %s: %w", account.Name, err)
	}
	return nil
}

// Update replaces all mutable fields of an account.
func (r *Repository) Update(account *domain.Account) error {
	account.UpdatedAt = time.Now().UTC()

	cookies, err := encodeCookies(account.Cookies)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(`
		UPDATE accounts SET
			name = ?, enabled = ?, can_like = ?, can_retweet = ?,
			can_comment = ?, use_ai = ?, comment_style = ?, cookies = ?,
			validated = ?, last_validated = ?, updated_at = ?
		WHERE id = ?
	`,
		account.Name, account.Enabled,
		account.CanLike, account.CanRetweet, account.CanComment,
		account.UseAI, string(account.CommentStyle), cookies,
		boolPtrToInt(account.Validated), timePtrToUnix(account.LastValidated),
		account.UpdatedAt.Unix(), account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.ID, err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("account %s not found", account.ID)
	}
	return nil
}

// Delete removes an account.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("account %s not found", id)
	}
	return nil
}

// SetEnabled toggles the enabled flag of an account.
func (r *Repository) SetEnabled(id string, enabled bool) error {
	result, err := r.db.Exec(
		"UPDATE accounts SET enabled = ?, updated_at = ? WHERE id = ?",
		enabled, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to toggle account %s: %w", id, err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("account %s not found", id)
	}
	return nil
}

// SetValidation records the outcome of a cookie validation check.
func (r *Repository) SetValidation(id string, validated bool, at time.Time) error {
	result, err := r.db.Exec(
		"UPDATE accounts SET validated = ?, last_validated = ?, updated_at = ? WHERE id = ?",
		validated, at.Unix(), time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to record validation for account %s: %w", id, err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("account %s not found", id)
	}
	return nil
}

// scannable covers both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row scannable) (*domain.Account, error) {
	var (
		account       domain.Account
		style         string
		cookieBlob    []byte
		validated     sql.NullBool
		lastValidated sql.NullInt64
		createdAt     int64
		updatedAt     int64
	)

	err := row.Scan(
		&account.ID, &account.Name, &account.Enabled,
		&account.CanLike, &account.CanRetweet, &account.CanComment,
		&account.UseAI, &style, &cookieBlob,
		&validated, &lastValidated, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.CommentStyle = domain.CommentStyle(style)
	account.CreatedAt = time.Unix(createdAt, 0).UTC()
	account.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if validated.Valid {
		v := validated.Bool
		account.Validated = &v
	}
	if lastValidated.Valid {
		ts := time.Unix(lastValidated.Int64, 0).UTC()
		account.LastValidated = &ts
	}

	if len(cookieBlob) > 0 {
		if err := msgpack.Unmarshal(cookieBlob, &account.Cookies); err != nil {
			return nil, fmt.Errorf("failed to decode cookies for account %s: %w", account.ID, err)
		}
	}

	return &account, nil
}

func encodeCookies(cookies []domain.Cookie) ([]byte, error) {
	if len(cookies) == 0 {
		return nil, nil
	}
	blob, err := msgpack.Marshal(cookies)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cookies: %w", err)
	}
	return blob, nil
}

func boolPtrToInt(b *bool) interface{} {
	if b == nil {
		return nil
	}
	if *b {
		return 1
	}
	return 0
}

func timePtrToUnix(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}
