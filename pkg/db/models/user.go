package models

import "time"

// User holds credentials and profile data.
type User struct {
	Base
	Username     string     `gorm:"column:username;type:varchar(150);not null;uniqueIndex:users_username_key"`
	Email        string     `gorm:"column:email;type:varchar(254);not null;default:''"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FirstName    string     `gorm:"column:first_name;type:varchar(150);not null;default:''"`
	LastName     string     `gorm:"column:last_name;type:varchar(150);not null;default:''"`
	IsStaff      bool       `gorm:"column:is_staff;not null;default:false"`
	IsSuperuser  bool       `gorm:"column:is_superuser;not null;default:false"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
}

func (User) TableName() string { return "users" }
