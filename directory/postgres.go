package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adminkit/authgate"
	"github.com/adminkit/authgate/rbac"
)

// Postgres reads principals from the admin console schema. The pool is
// borrowed, not owned.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const principalColumns = `
	id, username, coalesce(full_name, ''), coalesce(email, ''),
	password_hash, is_active, is_superuser, locked_until, attributes`

// FindByUsername implements [authgate.Directory].
func (p *Postgres) FindByUsername(ctx context.Context, username string) (*authgate.Principal, error) {
	return p.findOne(ctx, `SELECT `+principalColumns+` FROM users WHERE username = $1`, username)
}

// FindByID implements [authgate.Directory].
func (p *Postgres) FindByID(ctx context.Context, id int64) (*authgate.Principal, error) {
	return p.findOne(ctx, `SELECT `+principalColumns+` FROM users WHERE id = $1`, id)
}

func (p *Postgres) findOne(ctx context.Context, query string, arg any) (*authgate.Principal, error) {
	var (
		principal  authgate.Principal
		locked     *time.Time
		attributes []byte
	)
	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&principal.ID, &principal.Username, &principal.FullName,
		&principal.Email, &principal.PasswordHash, &principal.IsActive,
		&principal.IsSuperuser, &locked, &attributes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authgate.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("load principal: %w", err)
	}
	principal.LockedUntil = locked

	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &principal.Attributes); err != nil {
			return nil, fmt.Errorf("decode principal attributes: %w", err)
		}
	}

	roles, err := p.loadRoles(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	principal.Roles = roles
	return &principal, nil
}

func (p *Postgres) loadRoles(ctx context.Context, userID int64) ([]authgate.Role, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT r.id, r.code, r.name, coalesce(p.code, '')
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY ur.role_id, p.code`, userID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	defer rows.Close()

	var (
		roles []authgate.Role
		index = map[int64]int{}
	)
	for rows.Next() {
		var (
			roleID     int64
			code, name string
			permission string
		)
		if err := rows.Scan(&roleID, &code, &name, &permission); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}

		i, ok := index[roleID]
		if !ok {
			roles = append(roles, authgate.Role{ID: roleID, Code: code, Name: name})
			i = len(roles) - 1
			index[roleID] = i
		}
		// Unparseable grants are skipped rather than widened.
		if perm, ok := rbac.Parse(permission); ok {
			roles[i].Permissions = append(roles[i].Permissions, perm)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	return roles, nil
}

// SetLockUntil implements [authgate.Directory].
func (p *Postgres) SetLockUntil(ctx context.Context, id int64, until time.Time) error {
	tag, err := p.pool.Exec(ctx, `UPDATE users SET locked_until = $2 WHERE id = $1`, id, until)
	if err != nil {
		return fmt.Errorf("set lock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authgate.ErrPrincipalNotFound
	}
	return nil
}

// ClearLockUntil implements [authgate.Directory].
func (p *Postgres) ClearLockUntil(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `UPDATE users SET locked_until = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("clear lock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authgate.ErrPrincipalNotFound
	}
	return nil
}
