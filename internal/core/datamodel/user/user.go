package user

import "time"

// User mirrors the identity backend's profile row; the id is the token subject.
type User struct {
	ID        string    `gorm:"primaryKey"`
	Email     string    `gorm:"column:email;uniqueIndex;not null"`
	FullName  string    `gorm:"column:full_name"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}
