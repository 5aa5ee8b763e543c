package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	permissionDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/permission"
	"github.com/frahmantamala/datascope/internal/permission"
)

// PermissionRepository reads the role table with plain SQL; it sits on the hot
// path of every guarded request.
type PermissionRepository struct {
	db *sqlx.DB
}

func NewPermissionRepository(db *sqlx.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

// ListByRole returns the default rows of the role together with the company's own
// overrides, defaults first for each (module, permission).
func (r *PermissionRepository) ListByRole(ctx context.Context, companyID int64, role string) ([]*permissionDatamodel.RolePermission, error) {
	query := r.db.Rebind(`
		SELECT id, company_id, role, module, permission, allowed, updated_at
		FROM role_permissions
		WHERE role = ? AND company_id IN (?, ?)
		ORDER BY module, permission, company_id`)

	var rows []*permissionDatamodel.RolePermission
	if err := r.db.SelectContext(ctx, &rows, query, role, permission.DefaultsCompanyID, companyID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PermissionRepository) Upsert(ctx context.Context, rp *permissionDatamodel.RolePermission) error {
	query := r.db.Rebind(`
		INSERT INTO role_permissions (company_id, role, module, permission, allowed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (company_id, role, module, permission)
		DO UPDATE SET allowed = excluded.allowed, updated_at = excluded.updated_at`)

	_, err := r.db.ExecContext(ctx, query, rp.CompanyID, rp.Role, rp.Module, rp.Permission, rp.Allowed, rp.UpdatedAt)
	return err
}
