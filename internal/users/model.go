package users

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	UploadStatus string    `json:"uploadStatus"`
	CreatedAt    time.Time `json:"createdAt"`
}
