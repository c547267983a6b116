// Package model - scan exceptions (approved CVEs excluded from severity totals)
package model

import "time"

// Exception is an approval record for a CVE. A nil ImageName applies the
// exception globally across all images. Expiry is evaluated at filter time.
type Exception struct {
	Key        string     `json:"_key,omitempty"`
	CveID      string     `json:"cve_id"`
	ImageName  *string    `json:"image_name,omitempty"`
	Reason     string     `json:"reason"`
	ApprovedBy string     `json:"approved_by"`
	ApprovedAt time.Time  `json:"approved_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	IsActive   bool       `json:"is_active"`
	ObjType    string     `json:"objtype"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewException creates an active exception approved now
func NewException(cveID string, imageName *string, reason, approvedBy string, expiresAt *time.Time) *Exception {
	now := time.Now().UTC()
	return &Exception{
		CveID:      cveID,
		ImageName:  imageName,
		Reason:     reason,
		ApprovedBy: approvedBy,
		ApprovedAt: now,
		ExpiresAt:  expiresAt,
		IsActive:   true,
		ObjType:    "Exception",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsExpired reports whether the exception has an expiry in the past
func (e *Exception) IsExpired() bool {
	if e.ExpiresAt == nil {
		return false
	}
	return time.Now().UTC().After(*e.ExpiresAt)
}

// IsValid reports whether the exception should be applied: active and not expired
func (e *Exception) IsValid() bool {
	return e.IsActive && !e.IsExpired()
}

// ExceptionUpdate enumerates the mutable fields of an exception.
type ExceptionUpdate struct {
	Reason     *string    `json:"reason,omitempty"`
	ApprovedBy *string    `json:"approved_by,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
}
