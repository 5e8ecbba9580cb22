// ABOUTME: JSON:API document serializers for accounts and profiles
// ABOUTME: Builds self/related links from an explicit base URL; password hashes never leave here

package gateway

import (
	"time"

	"github.com/2389/coven-account/internal/store"
)

// Resource type names.
const (
	TypeAccount = "account"
	TypeProfile = "profile"
)

// Document is a JSON:API top-level document with a single primary resource.
type Document struct {
	Data     *Resource   `json:"data"`
	Included []*Resource `json:"included,omitempty"`
}

// Resource is a JSON:API resource object.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    map[string]any          `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Links         *Links                  `json:"links,omitempty"`
}

// Relationship is a JSON:API relationship object.
type Relationship struct {
	Data  *ResourceIdentifier `json:"data,omitempty"`
	Links *Links              `json:"links,omitempty"`
}

// ResourceIdentifier names a related resource.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Links holds JSON:API link members.
type Links struct {
	Self    string `json:"self,omitempty"`
	Related string `json:"related,omitempty"`
}

func accountURL(baseURL string) string { return baseURL + "/session/account" }
func profileURL(baseURL string) string { return baseURL + "/session/account/profile" }

// SerializeAccount renders acct as a JSON:API account document. The profile
// is embedded under included only when it was loaded with the account.
func SerializeAccount(baseURL string, acct *store.Account) *Document {
	profileRel := Relationship{Links: &Links{Related: profileURL(baseURL)}}
	if acct.Profile != nil {
		profileRel.Data = &ResourceIdentifier{Type: TypeProfile, ID: store.ProfileID(acct.ID)}
	}

	doc := &Document{
		Data: &Resource{
			Type: TypeAccount,
			ID:   acct.ID,
			Attributes: map[string]any{
				"username":  acct.Username,
				"createdAt": formatTimestamp(acct.CreatedAt),
			},
			Relationships: map[string]Relationship{"profile": profileRel},
			Links:         &Links{Self: accountURL(baseURL)},
		},
	}

	if acct.Profile != nil {
		doc.Included = []*Resource{newProfileResource(baseURL, acct.ID, acct.Profile)}
	}
	return doc
}

// SerializeProfile renders profile as a JSON:API profile document.
func SerializeProfile(baseURL string, profile *store.Profile) *Document {
	return &Document{Data: newProfileResource(baseURL, profile.AccountID, profile)}
}

func newProfileResource(baseURL, accountID string, p *store.Profile) *Resource {
	return &Resource{
		Type: TypeProfile,
		ID:   store.ProfileID(accountID),
		Attributes: map[string]any{
			"fullName":  p.FullName,
			"email":     p.Email,
			"phone":     p.Phone,
			"updatedAt": formatTimestamp(p.UpdatedAt),
		},
		Relationships: map[string]Relationship{
			"account": {
				Data:  &ResourceIdentifier{Type: TypeAccount, ID: accountID},
				Links: &Links{Related: accountURL(baseURL)},
			},
		},
		Links: &Links{Self: profileURL(baseURL)},
	}
}

// formatTimestamp renders t as RFC 3339, or null when unset.
func formatTimestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
