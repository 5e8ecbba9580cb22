// ABOUTME: Request decoding and envelope validation for the account routes
// ABOUTME: Checks the JSON:API sign-up envelope and the include query parameter with ozzo-validation

package gateway

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/2389/coven-account/internal/account"
	"github.com/2389/coven-account/internal/apierr"
)

// maxBodyBytes caps sign-up request bodies.
const maxBodyBytes = 64 << 10

// includeProfile is the only accepted include value on read routes.
const includeProfile = "profile"

// signUpDocument is the JSON:API body of a sign-up request.
type signUpDocument struct {
	Data     *signUpResource   `json:"data"`
	Included []profileResource `json:"included"`
}

type signUpResource struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes struct {
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"attributes"`
}

type profileResource struct {
	Type       string `json:"type"`
	Attributes struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	} `json:"attributes"`
}

func (d signUpDocument) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Data, validation.Required),
		validation.Field(&d.Included, validation.Length(0, 1)),
	)
	if err != nil {
		return err
	}
	for _, inc := range d.Included {
		if err := inc.Validate(); err != nil {
			return validation.Errors{"included": err}
		}
	}
	return nil
}

func (r signUpResource) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(TypeAccount)),
	)
}

func (r profileResource) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(TypeProfile)),
	)
}

// decodeSignUp reads and checks the sign-up body, returning the account to create.
func decodeSignUp(w http.ResponseWriter, r *http.Request) (account.NewAccount, error) {
	var doc signUpDocument
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&doc); err != nil {
		return account.NewAccount{}, apierr.Validation("Invalid JSON body", err)
	}
	if err := doc.Validate(); err != nil {
		return account.NewAccount{}, apierr.Validation(err.Error(), err)
	}

	in := account.NewAccount{
		ID:       doc.Data.ID,
		Username: doc.Data.Attributes.Username,
		Password: doc.Data.Attributes.Password,
	}
	if len(doc.Included) == 1 {
		attrs := doc.Included[0].Attributes
		in.Profile = &account.ProfileInput{
			FullName: attrs.FullName,
			Email:    attrs.Email,
			Phone:    attrs.Phone,
		}
	}
	return in, nil
}

// validateInclude accepts an empty include or "profile".
func validateInclude(include string) error {
	if err := validation.Validate(include, validation.In(includeProfile)); err != nil {
		return apierr.Validation("include: "+err.Error(), err)
	}
	return nil
}
