package entity

type User struct {
	BaseEntity
	Username          string `json:"username" gorm:"unique;type:varchar(50);not null"`
	Email             string `json:"email" gorm:"unique;type:varchar(100)"`
	Password          string `json:"-" gorm:"type:varchar(255)"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty" gorm:"type:text"`

	Participating []ChatParticipant `json:"-" gorm:"foreignKey:UserID"`
}
