package models

import "time"

// Contributor is a registered identity that can upload files and, when
// privileged, moderate the catalog.
type Contributor struct {
	ID          string    `db:"id" json:"_id"`
	Username    string    `db:"username" json:"username"`
	Email       string    `db:"email" json:"email"`
	IsAdmin     bool      `db:"is_admin" json:"isAdmin"`
	IsSuperUser bool      `db:"is_super_user" json:"isSuperUser"`
	IsBanned    bool      `db:"is_banned" json:"isBanned"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ContributorRef is the contact identity shown to moderators.
type ContributorRef struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Ref returns the contact identity of the contributor.
func (c *Contributor) Ref() *ContributorRef {
	if c == nil {
		return nil
	}
	return &ContributorRef{ID: c.ID, Username: c.Username, Email: c.Email}
}

// RoleView is returned by the role lookup used for client-side UI gating.
type RoleView struct {
	IsAdmin bool `json:"isAdmin"`
}

// BanView reports the ban state after a toggle.
type BanView struct {
	ID       string `json:"_id"`
	IsBanned bool   `json:"isBanned"`
}
