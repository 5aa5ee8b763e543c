package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/datascope/internal/company"
	companyPostgres "github.com/frahmantamala/datascope/internal/company/postgres"
	companyDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/company"
	"github.com/frahmantamala/datascope/internal/permission"
	permissionPostgres "github.com/frahmantamala/datascope/internal/permission/postgres"
	"github.com/frahmantamala/datascope/pkg/logger"
)

var (
	seedCompanyName string
	seedCompanySlug string
	seedOwnerID     string
	seedMembers     []string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed default role permissions and a sample company",
	Long: `Write the default role permission table and create a company owned by --owner.
Extra members are given as user:role, e.g. --member agent-1:agent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		log := logger.LoggerWrapper()

		db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		gdb, err := initGorm(db, cfg.IsProduction())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		permissions := permission.NewService(permissionPostgres.NewPermissionRepository(db), nil, permission.Options{}, log)
		if err := permissions.SeedDefaults(ctx); err != nil {
			return err
		}
		fmt.Println("Seeded default role permissions")

		companies := company.NewService(companyPostgres.NewCompanyRepository(gdb), log)
		companyID, err := ensureCompany(ctx, gdb, companies)
		if err != nil {
			return err
		}

		for _, member := range seedMembers {
			userID, role, ok := strings.Cut(member, ":")
			if !ok {
				return fmt.Errorf("member %q must look like user:role", member)
			}
			if err := companies.AddMember(ctx, companyID, userID, role); err != nil {
				return fmt.Errorf("add member %s: %w", userID, err)
			}
			fmt.Printf("Added %s as %s\n", userID, role)
		}
		return nil
	},
}

func ensureCompany(ctx context.Context, gdb *gorm.DB, companies *company.Service) (int64, error) {
	var existing companyDatamodel.Company
	err := gdb.WithContext(ctx).Where("slug = ?", seedCompanySlug).Limit(1).Find(&existing).Error
	if err != nil {
		return 0, fmt.Errorf("lookup company: %w", err)
	}
	if existing.ID != 0 {
		fmt.Printf("Company %s already exists (id %d)\n", seedCompanySlug, existing.ID)
		if err := companies.AddMember(ctx, existing.ID, seedOwnerID, company.RoleAdmin); err != nil {
			return 0, err
		}
		return existing.ID, nil
	}

	c, err := companies.CreateWithOwner(ctx, seedCompanyName, seedCompanySlug, seedOwnerID)
	if err != nil {
		return 0, err
	}
	fmt.Printf("Seeded company %s (id %d) owned by %s\n", c.Slug, c.ID, seedOwnerID)
	return c.ID, nil
}

func init() {
	seedCmd.Flags().StringVar(&seedCompanyName, "company", "Acme Events", "company name")
	seedCmd.Flags().StringVar(&seedCompanySlug, "slug", "acme", "company slug")
	seedCmd.Flags().StringVar(&seedOwnerID, "owner", "dev-admin", "user id of the company admin")
	seedCmd.Flags().StringSliceVar(&seedMembers, "member", nil, "additional member as user:role")
}
