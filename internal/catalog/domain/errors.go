package domain

import "travelhub/pkg/errors"

// Domain-specific errors
var (
	ErrQueryRequired   = errors.NewValidation(`query parameter "q" is required`, nil)
	ErrInvalidAgencyID = errors.NewValidation("agency must be a valid id", nil)
	ErrReviewNotOwned  = errors.NewForbidden("only the author or an admin can delete this review")
	ErrUnauthenticated = errors.NewUnauthorized("access denied, please login")
)
