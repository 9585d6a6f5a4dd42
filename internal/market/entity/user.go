package entity

import (
	"time"
)

// Roles carried in JWT claims.
const (
	RoleFarmer   = "farmer"
	RoleSHG      = "shg"
	RoleConsumer = "consumer"
)

// User is the auth identity. Registration, password hashing and token
// issuance live outside this service; the row exists for joins (email,
// mobile) and foreign keys.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Email     string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Mobile    string    `json:"mobile" gorm:"size:20"`
	Role      string    `json:"role" gorm:"size:16;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// FarmerProfile carries farm details denormalized into traceability records.
type FarmerProfile struct {
	UserID       string    `json:"user_id" gorm:"primaryKey;type:uuid"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	FarmLocation string    `json:"farm_location" gorm:"size:255"`
	City         string    `json:"city" gorm:"size:64"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (FarmerProfile) TableName() string {
	return "farmer_profiles"
}

// SHGProfile carries cooperative details; WarehouseLocation is copied into
// orders as the pickup location at placement time.
type SHGProfile struct {
	UserID            string    `json:"user_id" gorm:"primaryKey;type:uuid"`
	OrganizationName  string    `json:"organization_name" gorm:"size:128;not null"`
	ContactPersonName string    `json:"contact_person_name" gorm:"size:128"`
	WarehouseLocation string    `json:"warehouse_location" gorm:"size:255"`
	City              string    `json:"city" gorm:"size:64"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (SHGProfile) TableName() string {
	return "shg_profiles"
}

// ConsumerProfile is the buyer-facing profile.
type ConsumerProfile struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Street    string    `json:"street" gorm:"size:255"`
	City      string    `json:"city" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ConsumerProfile) TableName() string {
	return "consumer_profiles"
}
