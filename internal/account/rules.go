// ABOUTME: Field rules for new accounts and their initial profile
// ABOUTME: Validates with ozzo-validation and normalizes phone numbers to E.164

package account

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

var (
	usernamePattern  = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)
	accountIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
)

// errInvalidPhone is reported for numbers libphonenumber cannot place.
var errInvalidPhone = errors.New("must be a valid phone number")

// NewAccount carries the fields accepted at sign-up.
type NewAccount struct {
	ID       string // optional; generated when empty
	Username string
	Password string
	Profile  *ProfileInput
}

// ProfileInput carries the optional initial profile.
type ProfileInput struct {
	FullName string
	Email    string
	Phone    string
}

// Validate checks the sign-up fields.
func (n NewAccount) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.ID, validation.Length(1, 64), validation.Match(accountIDPattern)),
		validation.Field(&n.Username, validation.Required, validation.Length(3, 64), validation.Match(usernamePattern)),
		// bcrypt ignores input past 72 bytes
		validation.Field(&n.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&n.Profile),
	)
}

// Validate checks the profile fields. Phone numbers are checked by the
// service once the default region is known.
func (p ProfileInput) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FullName, validation.Length(0, 200)),
		validation.Field(&p.Email, validation.Length(0, 254), is.Email),
		validation.Field(&p.Phone, validation.Length(0, 32)),
	)
}

// normalizePhone formats raw as E.164, reading numbers without a country
// code in region. An empty number stays empty.
func normalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", validation.Errors{"phone": errInvalidPhone}
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", validation.Errors{"phone": errInvalidPhone}
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
