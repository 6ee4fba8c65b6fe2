package user_test

import (
	"fmt"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	apperrors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/auth"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/settings"
	"github.com/timewise-hq/timewise/internal/user"
)

type mockUserRepository struct {
	users       map[int64]*user.User
	permissions map[int64][]string
	nextID      int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:       make(map[int64]*user.User),
		permissions: make(map[int64][]string),
	}
}

func (m *mockUserRepository) Create(u *user.User) error {
	m.nextID++
	u.ID = m.nextID
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *mockUserRepository) GetByID(userID int64) (*user.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError(
			fmt.Sprintf("user with id %d not found", userID),
			apperrors.ErrCodeUserNotFound)
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) GetByEmail(email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) List(includeInactive bool) ([]*user.User, error) {
	var out []*user.User
	for _, u := range m.users {
		if !includeInactive && !u.IsActive {
			continue
		}
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockUserRepository) GetPermissions(userID int64) ([]string, error) {
	return m.permissions[userID], nil
}

func (m *mockUserRepository) SetActive(userID int64, active bool) error {
	u, ok := m.users[userID]
	if !ok {
		return apperrors.NewNotFoundError("user not found", apperrors.ErrCodeUserNotFound)
	}
	u.IsActive = active
	return nil
}

func (m *mockUserRepository) ReplacePermissions(userID int64, permissionNames []string, grantedBy int64) error {
	m.permissions[userID] = permissionNames
	return nil
}

type stubHasher struct{}

func (stubHasher) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func expectAppErrorCode(err error, code apperrors.ErrorCode) {
	GinkgoHelper()
	Expect(err).To(HaveOccurred())
	appErr, ok := apperrors.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %T: %v", err, err)
	Expect(appErr.Code).To(Equal(code))
}

var _ = Describe("UserService", func() {
	var (
		service *user.Service
		repo    *mockUserRepository
		admin   *auth.User
		regular *auth.User
	)

	BeforeEach(func() {
		repo = newMockUserRepository()

		provider := settings.NewStaticFromSnapshot(settings.Timesheet{
			MaxHoursPerDay: decimal.NewFromInt(8),
			EditWindowDays: 3,
			Countries:      []string{"India", "Remote"},
		})

		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(repo, stubHasher{}, provider, lg)

		admin = &auth.User{ID: 1, Email: "admin@example.com", Name: "Asha Rao",
			Permissions: []string{auth.PermissionAdmin, auth.PermissionManageUsers}}
		regular = &auth.User{ID: 2, Email: "priya@example.com", Name: "Priya Nair",
			Permissions: []string{auth.PermissionLogWork}}

		// Seed the acting admin so self checks have a row to hit.
		repo.Create(&user.User{Email: admin.Email, Name: admin.Name, Country: "India", IsActive: true})
		repo.permissions[1] = admin.Permissions
	})

	Describe("CreateUser", func() {
		It("creates an employee with the role's permission set", func() {
			dto := user.CreateUserDTO{
				Email:    "dev@example.com",
				Name:     "Rahul Menon",
				Password: "s3cret-pass",
				Country:  "India",
				Role:     "employee",
			}

			u, err := service.CreateUser(admin, dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(u.ID).ToNot(BeZero())
			Expect(u.PasswordHash).To(Equal("hashed:s3cret-pass"))
			Expect(u.IsActive).To(BeTrue())
			Expect(u.Permissions).To(ConsistOf("log_work"))
			Expect(u.Role()).To(Equal(rules.RoleEmployee))
		})

		It("grants inspection accounts compliance viewing only", func() {
			dto := user.CreateUserDTO{
				Email:    "auditor@example.com",
				Name:     "Vikram Shah",
				Password: "s3cret-pass",
				Country:  "Remote",
				Role:     "inspection",
			}

			u, err := service.CreateUser(admin, dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(u.Permissions).To(ConsistOf("view_compliance"))
			Expect(u.Role()).To(Equal(rules.RoleInspection))
		})

		It("rejects duplicate email addresses", func() {
			dto := user.CreateUserDTO{
				Email:    "dev@example.com",
				Name:     "Rahul Menon",
				Password: "s3cret-pass",
				Country:  "India",
				Role:     "employee",
			}
			_, err := service.CreateUser(admin, dto)
			Expect(err).ToNot(HaveOccurred())

			dto.Name = "Someone Else"
			_, err = service.CreateUser(admin, dto)

			expectAppErrorCode(err, apperrors.ErrCodeDuplicateEmail)
		})

		It("rejects unknown roles", func() {
			dto := user.CreateUserDTO{
				Email:    "dev@example.com",
				Name:     "Rahul Menon",
				Password: "s3cret-pass",
				Country:  "India",
				Role:     "superuser",
			}

			_, err := service.CreateUser(admin, dto)

			expectAppErrorCode(err, apperrors.ErrCodeValidationFailed)
		})

		It("rejects countries outside the configured vocabulary", func() {
			dto := user.CreateUserDTO{
				Email:    "dev@example.com",
				Name:     "Rahul Menon",
				Password: "s3cret-pass",
				Country:  "Atlantis",
				Role:     "employee",
			}

			_, err := service.CreateUser(admin, dto)

			expectAppErrorCode(err, apperrors.ErrCodeValidationFailed)
		})

		It("rejects short passwords", func() {
			dto := user.CreateUserDTO{
				Email:    "dev@example.com",
				Name:     "Rahul Menon",
				Password: "short",
				Country:  "India",
				Role:     "employee",
			}

			_, err := service.CreateUser(admin, dto)

			expectAppErrorCode(err, apperrors.ErrCodeValidationFailed)
		})

		It("denies non-managers", func() {
			dto := user.CreateUserDTO{
				Email:    "dev@example.com",
				Name:     "Rahul Menon",
				Password: "s3cret-pass",
				Country:  "India",
				Role:     "employee",
			}

			_, err := service.CreateUser(regular, dto)

			expectAppErrorCode(err, apperrors.ErrCodeUnauthorizedAccess)
		})
	})

	Describe("SetUserActive", func() {
		var targetID int64

		BeforeEach(func() {
			u, err := service.CreateUser(admin, user.CreateUserDTO{
				Email:    "dev@example.com",
				Name:     "Rahul Menon",
				Password: "s3cret-pass",
				Country:  "India",
				Role:     "employee",
			})
			Expect(err).ToNot(HaveOccurred())
			targetID = u.ID
		})

		It("deactivates and reactivates an account", func() {
			u, err := service.SetUserActive(admin, targetID, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(u.IsActive).To(BeFalse())

			u, err = service.SetUserActive(admin, targetID, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(u.IsActive).To(BeTrue())
		})

		It("excludes deactivated users from the active directory", func() {
			_, err := service.SetUserActive(admin, targetID, false)
			Expect(err).ToNot(HaveOccurred())

			active, err := service.ActiveUsers()
			Expect(err).ToNot(HaveOccurred())
			for _, u := range active {
				Expect(u.ID).ToNot(Equal(targetID))
			}
		})

		It("refuses self-deactivation", func() {
			_, err := service.SetUserActive(admin, admin.ID, false)

			expectAppErrorCode(err, apperrors.ErrCodeValidationFailed)
		})

		It("returns not found for unknown users", func() {
			_, err := service.SetUserActive(admin, 999, false)

			expectAppErrorCode(err, apperrors.ErrCodeUserNotFound)
		})

		It("denies non-managers", func() {
			_, err := service.SetUserActive(regular, targetID, false)

			expectAppErrorCode(err, apperrors.ErrCodeUnauthorizedAccess)
		})
	})

	Describe("AssignRole", func() {
		var targetID int64

		BeforeEach(func() {
			u, err := service.CreateUser(admin, user.CreateUserDTO{
				Email:    "dev@example.com",
				Name:     "Rahul Menon",
				Password: "s3cret-pass",
				Country:  "India",
				Role:     "employee",
			})
			Expect(err).ToNot(HaveOccurred())
			targetID = u.ID
		})

		It("replaces the permission set when promoting to admin", func() {
			u, err := service.AssignRole(admin, targetID, user.AssignRoleDTO{Role: "admin"})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.Permissions).To(ContainElements("admin", "manage_users", "approve_entries"))
			Expect(u.Role()).To(Equal(rules.RoleAdmin))
		})

		It("replaces the permission set when demoting to inspection", func() {
			u, err := service.AssignRole(admin, targetID, user.AssignRoleDTO{Role: "inspection"})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.Permissions).To(ConsistOf("view_compliance"))
		})

		It("refuses removing your own admin role", func() {
			_, err := service.AssignRole(admin, admin.ID, user.AssignRoleDTO{Role: "employee"})

			expectAppErrorCode(err, apperrors.ErrCodeValidationFailed)
		})

		It("rejects unknown roles", func() {
			_, err := service.AssignRole(admin, targetID, user.AssignRoleDTO{Role: "owner"})

			expectAppErrorCode(err, apperrors.ErrCodeValidationFailed)
		})
	})

	Describe("ListUsers", func() {
		It("denies non-managers", func() {
			_, err := service.ListUsers(regular, false)

			expectAppErrorCode(err, apperrors.ErrCodeUnauthorizedAccess)
		})

		It("loads permissions for every listed user", func() {
			_, err := service.CreateUser(admin, user.CreateUserDTO{
				Email:    "dev@example.com",
				Name:     "Rahul Menon",
				Password: "s3cret-pass",
				Country:  "India",
				Role:     "employee",
			})
			Expect(err).ToNot(HaveOccurred())

			users, err := service.ListUsers(admin, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(users).To(HaveLen(2))
			for _, u := range users {
				Expect(u.Permissions).ToNot(BeEmpty())
			}
		})
	})
})
