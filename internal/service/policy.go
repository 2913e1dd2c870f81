package service

import "github.com/noah-isme/fairu-api/internal/models"

// IsPrivileged reports whether c is an admin or the superuser.
func IsPrivileged(c *models.Contributor) bool {
	return c != nil && (c.IsAdmin || c.IsSuperUser)
}

// CanModerate reports whether c may edit and verify catalog entries.
func CanModerate(c *models.Contributor) bool {
	return IsPrivileged(c) && !c.IsBanned
}

// CanUpload reports whether c may add catalog entries.
func CanUpload(c *models.Contributor) bool {
	return c != nil && !c.IsBanned
}

// CanBan reports whether actor may toggle the ban flag of target. Only the
// superuser may ban other privileged contributors and nobody may ban themselves.
func CanBan(actor, target *models.Contributor) bool {
	if !IsPrivileged(actor) || target == nil || actor.ID == target.ID {
		return false
	}
	return actor.IsSuperUser || !IsPrivileged(target)
}

// CanAssignRoles reports whether actor may grant or revoke admin on target.
func CanAssignRoles(actor, target *models.Contributor) bool {
	return actor != nil && target != nil && actor.IsSuperUser && actor.ID != target.ID
}

// CanBulkDelete reports whether c may delete catalog entries.
func CanBulkDelete(c *models.Contributor) bool {
	return c != nil && c.IsSuperUser
}
