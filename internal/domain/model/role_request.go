package model

import (
	"time"
)

type RoleRequestStatus string

const (
	RequestPending  RoleRequestStatus = "pending"
	RequestApproved RoleRequestStatus = "approved"
	RequestDenied   RoleRequestStatus = "denied"
)

// RoleRequest records an admin's ask to be escalated to superadmin.
// A user holds at most one request; a denied one is reused on resubmission.
type RoleRequest struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Username  string            `json:"username,omitempty"` // Joined for listings
	Status    RoleRequestStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}
