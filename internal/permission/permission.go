package permission

import (
	"sort"
	"strings"
	"time"
)

const (
	ModuleLeads         = "leads"
	ModuleSurveys       = "surveys"
	ModuleRaffles       = "raffles"
	ModuleNotifications = "notifications"
	ModuleDashboard     = "dashboard"
	ModuleSettings      = "settings"
)

const (
	View   = "view"
	Create = "create"
	Edit   = "edit"
	Delete = "delete"
	Export = "export"
	Draw   = "draw"
)

// Catalog lists the permissions each module understands.
var Catalog = map[string][]string{
	ModuleLeads:         {View, Create, Edit, Delete, Export},
	ModuleSurveys:       {View, Create, Edit, Delete},
	ModuleRaffles:       {View, Create, Edit, Delete, Draw},
	ModuleNotifications: {View, Edit, Delete},
	ModuleDashboard:     {View},
	ModuleSettings:      {View, Edit},
}

type State string

const (
	StateGranted State = "granted"
	StateDenied  State = "denied"
	StateLoading State = "loading"
	StateError   State = "error"
)

type Decision struct {
	Allowed    bool   `json:"allowed"`
	State      State  `json:"state"`
	Module     string `json:"module"`
	Permission string `json:"permission"`
}

// Set is the permission snapshot of one session in one company.
type Set struct {
	CompanyID int64           `json:"company_id"`
	UserID    string          `json:"user_id"`
	Role      string          `json:"role"`
	Grants    map[string]bool `json:"grants"`
	LoadedAt  time.Time       `json:"loaded_at"`
}

type RoleGrant struct {
	Module     string `json:"module"`
	Permission string `json:"permission"`
	Allowed    bool   `json:"allowed"`
}

func Key(module, permission string) string {
	return normalize(module) + ":" + normalize(permission)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func IsKnown(module, permission string) bool {
	perms, ok := Catalog[normalize(module)]
	if !ok {
		return false
	}
	p := normalize(permission)
	for _, candidate := range perms {
		if candidate == p {
			return true
		}
	}
	return false
}

func NewSet(companyID int64, userID, role string, grants []RoleGrant) *Set {
	set := &Set{
		CompanyID: companyID,
		UserID:    userID,
		Role:      role,
		Grants:    make(map[string]bool, len(grants)),
		LoadedAt:  time.Now(),
	}
	for _, g := range grants {
		set.Grants[Key(g.Module, g.Permission)] = g.Allowed
	}
	return set
}

func (s *Set) Loaded() bool {
	return s != nil && !s.LoadedAt.IsZero() && s.Grants != nil
}

// Allowed lists granted permissions grouped by module, sorted for stable output.
func (s *Set) Allowed() map[string][]string {
	out := make(map[string][]string)
	if !s.Loaded() {
		return out
	}
	for key, allowed := range s.Grants {
		if !allowed {
			continue
		}
		module, perm, found := strings.Cut(key, ":")
		if !found {
			continue
		}
		out[module] = append(out[module], perm)
	}
	for module := range out {
		sort.Strings(out[module])
	}
	return out
}

// Evaluate answers a (module, permission) question from a snapshot. A snapshot that
// has not loaded yet is never allowed; it reports the loading state instead.
func Evaluate(set *Set, module, permission string) Decision {
	d := Decision{
		Module:     normalize(module),
		Permission: normalize(permission),
		State:      StateDenied,
	}
	if !set.Loaded() {
		d.State = StateLoading
		return d
	}
	if set.Grants[Key(module, permission)] {
		d.Allowed = true
		d.State = StateGranted
	}
	return d
}
