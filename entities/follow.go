package entities

// Follow links a follower to the user they follow. The pair is the identity.
type Follow struct {
	FollowerID uint `gorm:"primaryKey" json:"follower_id"`
	FollowedID uint `gorm:"primaryKey;index" json:"followed_id"`
	Follower   User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followed   User `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
}
