package domain

import "time"

type Interview struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Role       string    `gorm:"size:255;not null" json:"role"`
	Type       string    `gorm:"size:64" json:"type"`
	Level      string    `gorm:"size:64" json:"level"`
	TechStack  []string  `gorm:"type:text;serializer:json" json:"techstack"`
	Questions  []string  `gorm:"type:text;serializer:json" json:"questions"`
	UserID     string    `gorm:"size:64;not null;index" json:"userId"`
	Finalized  bool      `gorm:"not null;default:false;index" json:"finalized"`
	CoverImage string    `gorm:"size:255" json:"coverImage,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}
