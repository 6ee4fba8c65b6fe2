package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		_, db, err := openDatabases(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			clearSeedData(db)
		}

		seedPermissions(db)

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		adminID := seedUser(db, "admin@timewise.local", "Asha Admin", "India", string(hash))
		employeeID := seedUser(db, "priya@timewise.local", "Priya Sharma", "India", string(hash))
		inspectorID := seedUser(db, "inspect@timewise.local", "Iqbal Auditor", "Remote", string(hash))

		grantRole(db, adminID, rules.RoleAdmin, adminID)
		grantRole(db, employeeID, rules.RoleEmployee, adminID)
		grantRole(db, inspectorID, rules.RoleInspection, adminID)

		seedLeaveDates(db, adminID)

		fmt.Println("Seed complete. All dev accounts use password:", password)
	},
}

func clearSeedData(db *gorm.DB) {
	// Children before parents, FKs are enforced.
	for _, table := range []string{"notification_log", "work_entries", "user_permissions", "leave_dates", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("failed to clear %s: %v", table, err)
		}
	}
	fmt.Println("Cleared existing data")
}

func seedPermissions(db *gorm.DB) {
	permissions := []struct {
		Name string
		Desc string
	}{
		{"admin", "full administrator"},
		{"manage_users", "Can create, deactivate, and assign roles to users"},
		{"approve_entries", "Can reject submitted work entries"},
		{"view_compliance", "Can view compliance reports for all users"},
		{"log_work", "Can log daily work entries"},
	}

	for _, p := range permissions {
		var pid int64
		row := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row()
		if err := row.Scan(&pid); err != nil {
			if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
				log.Fatalf("failed to insert permission %s: %v", p.Name, err)
			}
		}
	}
}

func seedUser(db *gorm.DB, email, name, country, passwordHash string) int64 {
	var id int64
	if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err == nil {
		fmt.Printf("user %s already exists; will ensure permissions\n", email)
		return id
	}

	if err := db.Exec(
		"INSERT INTO users (email, name, password_hash, country, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
		email, name, passwordHash, country,
	).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err != nil {
		log.Fatalf("failed to lookup user id for %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email)
	return id
}

func grantRole(db *gorm.DB, userID int64, role rules.Role, grantedBy int64) {
	names, ok := user.PermissionsForRole(role)
	if !ok {
		log.Fatalf("unknown role %s", role)
	}

	for _, permName := range names {
		var pid int64
		if err := db.Raw("SELECT id FROM permissions WHERE name = ?", permName).Row().Scan(&pid); err != nil {
			log.Fatalf("permission not found %s: %v", permName, err)
		}

		var exists int
		if err := db.Raw("SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_id = ?", userID, pid).Row().Scan(&exists); err == nil {
			continue
		}

		if err := db.Exec("INSERT INTO user_permissions (user_id, permission_id, granted_by, created_at) VALUES (?, ?, ?, now())", userID, pid, grantedBy).Error; err != nil {
			log.Fatalf("failed to grant permission %s to user %d: %v", permName, userID, err)
		}
	}

	fmt.Printf("Granted %s permissions to user %d\n", role, userID)
}

func seedLeaveDates(db *gorm.DB, createdBy int64) {
	leaves := []struct {
		Date string
		Name string
	}{
		{"2026-01-26", "Republic Day"},
		{"2026-08-15", "Independence Day"},
		{"2026-10-02", "Gandhi Jayanti"},
		{"2026-12-25", "Christmas"},
	}

	for _, l := range leaves {
		var exists int
		row := db.Raw("SELECT 1 FROM leave_dates WHERE leave_date = ?", l.Date).Row()
		if err := row.Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO leave_dates (leave_date, name, created_by, created_at) VALUES (?, ?, ?, now())", l.Date, l.Name, createdBy).Error; err != nil {
				log.Fatalf("failed to insert leave date %s: %v", l.Date, err)
			}
			fmt.Printf("Seeded leave date: %s (%s)\n", l.Date, l.Name)
		}
	}
}
