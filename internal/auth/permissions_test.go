package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"time2care_backend/internal/models"
	"time2care_backend/pkg/apperrors"
)

func TestAuthorize(t *testing.T) {
	required := Roles(models.UserRoleCompany)

	assert.NoError(t, Authorize(required, &SessionClaims{Role: models.UserRoleCompany}))

	err := Authorize(required, &SessionClaims{Role: models.UserRoleUser})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))

	assert.ErrorIs(t, Authorize(required, nil), apperrors.ErrInsufficientPermissions)
}

func TestAuthorize_MultipleRoles(t *testing.T) {
	required := Roles(models.UserRoleUser, models.UserRoleCompany)

	assert.NoError(t, Authorize(required, &SessionClaims{Role: models.UserRoleUser}))
	assert.NoError(t, Authorize(required, &SessionClaims{Role: models.UserRoleCompany}))
	assert.Error(t, Authorize(required, &SessionClaims{Role: "admin"}))
}
