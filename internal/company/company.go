package company

import (
	"time"

	companyDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/company"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
	RoleViewer  = "viewer"
)

var Roles = []string{RoleAdmin, RoleManager, RoleAgent, RoleViewer}

type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type Membership struct {
	CompanyID   int64  `json:"company_id"`
	CompanyName string `json:"company_name"`
	CompanySlug string `json:"company_slug"`
	Role        string `json:"role"`
}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func FromDataModel(c *companyDatamodel.Company) *Company {
	return &Company{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		CreatedAt: c.CreatedAt,
	}
}

func MembershipsFromDataModel(rows []*companyDatamodel.Membership) []Membership {
	out := make([]Membership, len(rows))
	for i, m := range rows {
		out[i] = Membership{
			CompanyID:   m.CompanyID,
			CompanyName: m.CompanyName,
			CompanySlug: m.CompanySlug,
			Role:        m.Role,
		}
	}
	return out
}
