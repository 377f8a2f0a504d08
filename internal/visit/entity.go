// AngelaMos | 2026
// entity.go

package visit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type Photo struct {
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Photos is stored as a JSONB array.
type Photos []Photo

func (p Photos) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Photo(p))
}

func (p *Photos) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = Photos{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan photos: unsupported type %T", src)
	}
	return json.Unmarshal(raw, (*[]Photo)(p))
}

type Visit struct {
	ID               string         `db:"id"`
	CompanyID        string         `db:"company_id"`
	PropertyID       string         `db:"property_id"`
	CreatedByUserID  string         `db:"created_by_user_id"`
	WorkerName       string         `db:"worker_name"`
	WorkerAvatarURL  string         `db:"worker_avatar_url"`
	Note             string         `db:"note"`
	ServiceType      string         `db:"service_type"`
	ServiceChecklist pq.StringArray `db:"service_checklist"`
	Photos           Photos         `db:"photos"`
	CreatedAt        time.Time      `db:"created_at"`
}

// Reaction carries the reacting user's names for display.
type Reaction struct {
	VisitID   string    `db:"visit_id"`
	UserID    string    `db:"user_id"`
	Emoji     string    `db:"emoji"`
	Name      string    `db:"name"`
	Username  *string   `db:"username"`
	CreatedAt time.Time `db:"created_at"`
}
