package models

import (
	"strings"
)

// Role is the single role held by an identity.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
	RolePatient      Role = "patient"
)

// Roles is the closed set of roles, in privilege order.
var Roles = []Role{RoleAdmin, RoleDoctor, RoleReceptionist, RolePatient}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// SubscriptionPlan gates premium features.
type SubscriptionPlan string

const (
	PlanFree SubscriptionPlan = "free"
	PlanPro  SubscriptionPlan = "pro"
)

func (p SubscriptionPlan) Valid() bool {
	return p == PlanFree || p == PlanPro
}

// User represents an identity in the system
type User struct {
	BaseModel
	Name             string           `gorm:"size:50;not null;column:name" json:"name"`
	Email            string           `gorm:"size:255;not null;uniqueIndex;column:email" json:"email"`
	Password         string           `gorm:"size:255;not null;column:password" json:"-"`
	Role             Role             `gorm:"size:20;not null;index;column:role;check:role IN ('admin','doctor','receptionist','patient')" json:"role"`
	Phone            string           `gorm:"size:30;column:phone" json:"phone,omitempty"`
	Specialization   string           `gorm:"size:100;column:specialization" json:"specialization,omitempty"`
	SubscriptionPlan SubscriptionPlan `gorm:"size:10;not null;column:subscription_plan;check:subscription_plan IN ('free','pro')" json:"subscriptionPlan"`
	RefreshToken     *string          `gorm:"size:64;column:refresh_token" json:"-"`
	IsActive         bool             `gorm:"not null;column:is_active" json:"isActive"`
}

func (User) TableName() string {
	return "users"
}

// NormalizeEmail lowercases and trims an email so it can serve as identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
