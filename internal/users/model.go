package users

import "time"

type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"fullName"`
	PictureURL       string    `json:"pictureUrl"`
	SubscriptionTier string    `json:"subscriptionTier,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
