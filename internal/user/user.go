package user

import (
	"time"

	"github.com/frahmantamala/datascope/internal/company"
	userDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/user"
	"github.com/frahmantamala/datascope/internal/permission"
)

// User is the local mirror of the identity backend's profile.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is the payload of GET /users/me. Permissions is nil when no single
// company could be resolved for the request.
type Profile struct {
	User        *User                        `json:"user"`
	Companies   []company.Membership         `json:"companies"`
	Permissions *permission.SnapshotResponse `json:"permissions,omitempty"`
}

type UpdateProfileDTO struct {
	FullName string `json:"full_name" validate:"max=200"`
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
