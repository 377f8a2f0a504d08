// AngelaMos | 2026
// entity.go

package property

import (
	"time"
)

type Property struct {
	ID               string    `db:"id"`
	CompanyID        string    `db:"company_id"`
	Name             string    `db:"name"`
	Address          string    `db:"address"`
	ClientShareToken string    `db:"client_share_token"`
	CompanyLogoURL   string    `db:"company_logo_url"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// ClientAccount is a client user assigned to a property.
type ClientAccount struct {
	PropertyID string  `db:"property_id"`
	ID         string  `db:"id"`
	Name       string  `db:"name"`
	Email      string  `db:"email"`
	Username   *string `db:"username"`
	AvatarURL  string  `db:"avatar_url"`
}
