package model

const (
	RoleCustomer = "customer"
	RoleExpert   = "expert"
)

// Author is the read-only projection of a user embedded in posts and comments.
type Author struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Role        string  `json:"role"`
	Verified    bool    `json:"verified"`
}
