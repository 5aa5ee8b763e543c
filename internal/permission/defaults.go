package permission

import "github.com/frahmantamala/datascope/internal/company"

// DefaultGrants is the role table the seed command writes for a fresh install.
func DefaultGrants() map[string][]RoleGrant {
	all := func(filter func(module, perm string) bool) []RoleGrant {
		var out []RoleGrant
		for _, module := range Modules() {
			for _, perm := range Catalog[module] {
				out = append(out, RoleGrant{Module: module, Permission: perm, Allowed: filter(module, perm)})
			}
		}
		return out
	}
	return map[string][]RoleGrant{
		company.RoleAdmin: all(func(string, string) bool { return true }),
		company.RoleManager: all(func(module, perm string) bool {
			return module != ModuleSettings || perm == View
		}),
		company.RoleAgent: all(func(module, perm string) bool {
			switch module {
			case ModuleLeads:
				return perm == View || perm == Create || perm == Edit
			case ModuleSurveys, ModuleRaffles, ModuleDashboard:
				return perm == View
			case ModuleNotifications:
				return true
			}
			return false
		}),
		company.RoleViewer: all(func(module, perm string) bool {
			return perm == View && module != ModuleSettings
		}),
	}
}

// Modules returns the catalog's module names in a fixed order.
func Modules() []string {
	return []string{ModuleLeads, ModuleSurveys, ModuleRaffles, ModuleNotifications, ModuleDashboard, ModuleSettings}
}
