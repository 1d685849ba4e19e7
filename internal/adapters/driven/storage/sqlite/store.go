package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// DefaultFileName is the database file created under the data directory.
const DefaultFileName = "helpdesk.db"

// Store is a SQLite-backed metadata store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens the database at path, creating it and its directory.
// If path is empty, defaults to ~/.helpdesk/data/helpdesk.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".helpdesk", "data", DefaultFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TenantStore returns a TenantStore interface backed by this store.
func (s *Store) TenantStore() driven.TenantStore {
	return &tenantStore{store: s}
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_tenants.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ==================== Tenant Store ====================

// tenantStore implements driven.TenantStore.
type tenantStore struct {
	store *Store
}

var _ driven.TenantStore = (*tenantStore)(nil)

const tenantColumns = "id, slug, name, website, accepted_senders, created_at, updated_at"

// Save creates or updates a tenant. A slug held by another tenant
// returns domain.ErrAlreadyExists.
func (s *tenantStore) Save(ctx context.Context, tenant *domain.Tenant) error {
	senders := tenant.AcceptedSenders
	if senders == nil {
		senders = []string{}
	}
	sendersJSON, err := json.Marshal(senders)
	if err != nil {
		return fmt.Errorf("marshalling accepted senders: %w", err)
	}

	now := time.Now().UTC()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	if tenant.UpdatedAt.IsZero() {
		tenant.UpdatedAt = now
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			name = excluded.name,
			website = excluded.website,
			accepted_senders = excluded.accepted_senders,
			updated_at = excluded.updated_at
	`, tenant.ID, tenant.Slug, tenant.Name, tenant.Website, string(sendersJSON),
		tenant.CreatedAt.UTC(), tenant.UpdatedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: slug %q", domain.ErrAlreadyExists, tenant.Slug)
		}
		return fmt.Errorf("saving tenant: %w", err)
	}
	return nil
}

// Get retrieves a tenant by ID.
func (s *tenantStore) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE id = ?", id)
	return scanTenant(row)
}

// GetBySlug retrieves a tenant by slug.
func (s *tenantStore) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE slug = ?", slug)
	return scanTenant(row)
}

// List returns all tenants ordered by slug.
func (s *tenantStore) List(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT "+tenantColumns+" FROM tenants ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("querying tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant //nolint:prealloc // size unknown from query
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenants: %w", err)
	}
	return tenants, nil
}

// Delete removes a tenant by ID.
func (s *tenantStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM tenants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTenant(row scanner) (*domain.Tenant, error) {
	var t domain.Tenant
	var sendersJSON string
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Website, &sendersJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning tenant: %w", err)
	}
	if err := json.Unmarshal([]byte(sendersJSON), &t.AcceptedSenders); err != nil {
		return nil, fmt.Errorf("unmarshaling accepted senders: %w", err)
	}
	if len(t.AcceptedSenders) == 0 {
		t.AcceptedSenders = nil
	}
	if createdAt.Valid {
		t.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		t.UpdatedAt = updatedAt.Time
	}
	return &t, nil
}
