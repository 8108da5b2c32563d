package service

import (
	"github.com/psychotest-app/psychotest-api/internal/models"
	appErrors "github.com/psychotest-app/psychotest-api/pkg/errors"
)

// AccessPolicy decides which principals may read which results. Psychologists
// operate under a broad-trust model and may read everything; students only
// ever see their own records.
type AccessPolicy struct{}

// NewAccessPolicy constructs the policy.
func NewAccessPolicy() *AccessPolicy {
	return &AccessPolicy{}
}

// CanRead checks single-result access.
func (AccessPolicy) CanRead(claims *models.JWTClaims, result *models.TestResult) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RolePsychologist {
		return nil
	}
	if claims.Role == models.RoleStudent && result.UserID == claims.UserID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "no access to this test result")
}

// CanListAll gates the cross-student listing.
func (AccessPolicy) CanListAll(claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RolePsychologist {
		return appErrors.Clone(appErrors.ErrForbidden, "psychologist role required")
	}
	return nil
}

// CanViewByUser gates per-student listings for someone else's results.
func (AccessPolicy) CanViewByUser(claims *models.JWTClaims, targetUserID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RolePsychologist {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "psychologist role required")
}
