package utils

import (
	"context"
	"net/http"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/apierr"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/normalization"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/repos"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/types"
)

var alphabeticNameRe = regexp.MustCompile(`^[A-Za-z\s]+$`)

func SignupInputValidation(ctx context.Context, userRepo repos.UserRepo, user *types.User) error {
	if user == nil {
		return apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "no user given")
	}
	if user.Email == "" {
		return apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "an email is required to sign up")
	}
	if user.Password == "" {
		return apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "a password is required to sign up")
	}
	if user.Name == "" {
		return apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "a name is required to sign up")
	}
	if !alphabeticNameRe.MatchString(user.Name) {
		return apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "name must contain only alphabetic characters and spaces")
	}
	emailExists, err := userRepo.EmailExists(ctx, nil, user.Email)
	if err != nil {
		return apierr.New(http.StatusInternalServerError, "EMAIL_CHECK_FAILED", err)
	}
	if emailExists {
		return apierr.Newf(http.StatusConflict, apierr.CodeConflict, "email is already in use")
	}
	return nil
}

func LoginInputValidation(email, password string) error {
	if email == "" {
		return apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "email is required to login")
	}
	if password == "" {
		return apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "password is required to login")
	}
	return nil
}

func HashPassword(user *types.User) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return apierr.New(http.StatusInternalServerError, "HASH_FAILED", err)
	}
	user.Password = string(hashedPassword)
	return nil
}

func NormalizeUserFields(user *types.User) {
	user.Email = normalization.ParseInputString(user.Email)
	user.Name = normalization.TrimInputString(user.Name)
}
