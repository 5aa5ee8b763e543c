package permission

import "time"

// RolePermission is one (company, role, module, permission) grant row. CompanyID 0
// holds the defaults every company starts from; a company row overrides it.
type RolePermission struct {
	ID         int64     `gorm:"primaryKey" db:"id"`
	CompanyID  int64     `gorm:"column:company_id;not null;default:0;uniqueIndex:idx_role_permissions_key,priority:1" db:"company_id"`
	Role       string    `gorm:"column:role;not null;uniqueIndex:idx_role_permissions_key,priority:2" db:"role"`
	Module     string    `gorm:"column:module;not null;uniqueIndex:idx_role_permissions_key,priority:3" db:"module"`
	Permission string    `gorm:"column:permission;not null;uniqueIndex:idx_role_permissions_key,priority:4" db:"permission"`
	Allowed    bool      `gorm:"column:allowed;not null" db:"allowed"`
	UpdatedAt  time.Time `gorm:"column:updated_at" db:"updated_at"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}
