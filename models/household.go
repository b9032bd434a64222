package models

import "time"

// Household represents a flat/unit in the community
type Household struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FlatNo    string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"flat_no"`
	Name      string    `gorm:"type:varchar(100)" json:"name"` // 例如"The Johnson Family"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Members  []User    `gorm:"foreignKey:HouseholdID" json:"members,omitempty"`
	Visitors []Visitor `gorm:"foreignKey:HostHouseholdID" json:"visitors,omitempty"`
}
