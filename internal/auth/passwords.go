package auth

import pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"

const passwordMismatchMessage = "the passwords do not match"

// CheckConfirmation fails when password and confirmation differ. The error is
// keyed to confirm_password for both registration and password change.
func CheckConfirmation(password, confirm string) error {
	if password != confirm {
		return pkgerrors.Field("confirm_password", passwordMismatchMessage)
	}
	return nil
}
