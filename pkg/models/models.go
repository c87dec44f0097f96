package models

import (
	"time"
)

// User is the credential and profile record. Password and RefreshToken are
// never serialised into responses.
type User struct {
	ID           string    `gorm:"primary_key" json:"_id" bson:"_id"`
	Username     string    `gorm:"unique_index;not null" json:"username" bson:"username"`
	Email        string    `gorm:"unique_index;not null" json:"email" bson:"email"`
	FullName     string    `gorm:"not null" json:"fullName" bson:"fullName"`
	Avatar       string    `gorm:"not null" json:"avatar" bson:"avatar"`
	CoverImage   string    `json:"coverImage" bson:"coverImage"`
	Password     string    `gorm:"not null" json:"-" bson:"password"`
	RefreshToken string    `json:"-" bson:"refreshToken,omitempty"`
	WatchHistory []string  `gorm:"-" json:"watchHistory" bson:"watchHistory"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Subscription is a directed subscriber -> channel edge. Both ends are users.
type Subscription struct {
	ID           string    `gorm:"primary_key" json:"_id" bson:"_id"`
	SubscriberID string    `gorm:"unique_index:idx_subscriber_channel;not null" json:"subscriber" bson:"subscriber"`
	ChannelID    string    `gorm:"unique_index:idx_subscriber_channel;index;not null" json:"channel" bson:"channel"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Video struct {
	ID          string    `gorm:"primary_key" json:"_id" bson:"_id"`
	VideoFile   string    `gorm:"not null" json:"videoFile" bson:"videoFile"`
	Thumbnail   string    `json:"thumbnail" bson:"thumbnail"`
	Title       string    `gorm:"not null" json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Duration    float64   `json:"duration" bson:"duration"`
	Views       int64     `gorm:"not null;default:0" json:"views" bson:"views"`
	IsPublished bool      `gorm:"not null;default:false" json:"isPublished" bson:"isPublished"`
	OwnerID     string    `gorm:"index;not null" json:"owner" bson:"owner"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// WatchHistoryEntry is one position in a user's watch history. The
// autoincrement ID gives the order.
type WatchHistoryEntry struct {
	ID        uint      `gorm:"primary_key"`
	UserID    string    `gorm:"index;not null"`
	VideoID   string    `gorm:"not null"`
	CreatedAt time.Time
}

// UserUpdate lists the mutable profile fields; nil means unchanged.
type UserUpdate struct {
	FullName   *string
	Email      *string
	Avatar     *string
	CoverImage *string
}

// ChannelProfile is the public view of a channel computed over subscriptions.
type ChannelProfile struct {
	ID                  string `json:"_id" bson:"_id"`
	Username            string `json:"username" bson:"username"`
	FullName            string `json:"fullName" bson:"fullName"`
	Avatar              string `json:"avatar" bson:"avatar"`
	CoverImage          string `json:"coverImage" bson:"coverImage"`
	SubscriberCount     int64  `json:"subscriberCount" bson:"subscriberCount"`
	ChannelSubscribedTo int64  `json:"channelSubscribedTo" bson:"channelSubscribedTo"`
	IsSubscribed        bool   `json:"isSubscribed" bson:"isSubscribed"`
}

// Owner is the public identity attached to videos in the watch history.
type Owner struct {
	ID       string `json:"_id" bson:"_id"`
	Username string `json:"username" bson:"username"`
	FullName string `json:"fullName" bson:"fullName"`
	Avatar   string `json:"avatar" bson:"avatar"`
}

type WatchedVideo struct {
	Video `bson:",inline"`
	Owner Owner `json:"owner" bson:"ownerInfo"`
}
