package models

import (
	"time"
)

// User 用户模型（认证由外部身份提供方负责，这里只作为外键目标）
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(100)" json:"name"`
	Email      string    `gorm:"type:varchar(100);uniqueIndex" json:"email"`
	IsTestUser bool      `gorm:"default:false" json:"isTestUser"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) GetDisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
