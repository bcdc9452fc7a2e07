package model

import "time"

// MaxTeamSize is the largest roster a team may carry.
const MaxTeamSize = 6

// Team is a named roster of pokemon owned by a single user.
type Team struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	OwnerID   uint      `json:"owner_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Pokemon []Pokemon `json:"pokemon" gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
}

// Pokemon is a single roster slot on a team.
type Pokemon struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Name   string `json:"name" gorm:"size:100;not null"`
	TeamID uint   `json:"-" gorm:"not null;index"`
}

// TableName keeps the plural table name GORM would not infer for "pokemon".
func (Pokemon) TableName() string { return "pokemon" }
