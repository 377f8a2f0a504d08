// AngelaMos | 2026
// dto.go

package visit

import (
	"strings"
	"time"

	"github.com/carterperez-dev/visitpro/internal/catalog"
	"github.com/carterperez-dev/visitpro/internal/user"
)

const isoLayout = "2006-01-02T15:04:05.000Z"

type PhotoInput struct {
	URL          string `json:"url"          validate:"max=2048"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"max=2048"`
	CreatedAt    string `json:"createdAt"    validate:"max=64"`
}

type CreateRequest struct {
	Note             string       `json:"note"             validate:"max=5000"`
	WorkerName       string       `json:"workerName"       validate:"max=200"`
	ServiceType      string       `json:"serviceType"      validate:"required,oneof=pool_cleaning garden_service general_cleaning property_check key_holding handyman pest_control other"`
	ServiceChecklist []string     `json:"serviceChecklist" validate:"max=50,dive,max=100"`
	Photos           []PhotoInput `json:"photos"           validate:"max=50,dive"`
	SendEmailUpdate  bool         `json:"sendEmailUpdate"`
}

func (r *CreateRequest) Normalize() {
	r.ServiceType = strings.TrimSpace(r.ServiceType)
	r.WorkerName = strings.TrimSpace(r.WorkerName)
}

type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,oneof=👍 ❤️ 🔥 👏 😮"`
}

func (r *ReactionRequest) Normalize() {
	r.Emoji = strings.TrimSpace(r.Emoji)
}

type PhotoResponse struct {
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnailUrl"`
	CreatedAt    string  `json:"createdAt"`
}

type ReactionDetail struct {
	Emoji string   `json:"emoji"`
	Names []string `json:"names"`
}

type Response struct {
	ID               string           `json:"id"`
	PropertyID       string           `json:"propertyId"`
	CreatedAt        string           `json:"createdAt"`
	CreatedByUserID  string           `json:"createdByUserId"`
	WorkerName       string           `json:"workerName"`
	WorkerAvatarURL  *string          `json:"workerAvatarUrl"`
	Note             string           `json:"note"`
	ServiceType      string           `json:"serviceType"`
	ServiceChecklist []string         `json:"serviceChecklist"`
	ReactionCounts   map[string]int   `json:"reactionCounts"`
	UserReaction     *string          `json:"userReaction"`
	ReactionDetails  []ReactionDetail `json:"reactionDetails"`
	Photos           []PhotoResponse  `json:"photos"`
}

type CreateResponse struct {
	Response
	EmailSent       bool `json:"emailSent"`
	PushSentCount   int  `json:"pushSentCount"`
	PushFailedCount int  `json:"pushFailedCount"`
}

// ToResponse renders a visit for viewerID; an empty viewerID never has a
// userReaction.
func ToResponse(v *Visit, reactions []Reaction, viewerID string) Response {
	resp := Response{
		ID:               v.ID,
		PropertyID:       v.PropertyID,
		CreatedAt:        formatTime(v.CreatedAt),
		CreatedByUserID:  v.CreatedByUserID,
		WorkerName:       v.WorkerName,
		Note:             v.Note,
		ServiceType:      v.ServiceType,
		ServiceChecklist: []string(v.ServiceChecklist),
		ReactionCounts:   map[string]int{},
		ReactionDetails:  []ReactionDetail{},
		Photos:           make([]PhotoResponse, 0, len(v.Photos)),
	}
	if resp.ServiceChecklist == nil {
		resp.ServiceChecklist = []string{}
	}
	if v.WorkerAvatarURL != "" {
		avatar := v.WorkerAvatarURL
		resp.WorkerAvatarURL = &avatar
	}

	detailIndex := map[string]int{}
	for _, r := range reactions {
		emoji := strings.TrimSpace(r.Emoji)
		if !catalog.ValidEmoji(emoji) {
			continue
		}
		resp.ReactionCounts[emoji]++

		i, ok := detailIndex[emoji]
		if !ok {
			i = len(resp.ReactionDetails)
			detailIndex[emoji] = i
			resp.ReactionDetails = append(resp.ReactionDetails, ReactionDetail{Emoji: emoji})
		}
		resp.ReactionDetails[i].Names = append(resp.ReactionDetails[i].Names, displayName(r))

		if viewerID != "" && r.UserID == viewerID {
			e := emoji
			resp.UserReaction = &e
		}
	}

	for _, p := range v.Photos {
		photo := PhotoResponse{URL: p.URL, CreatedAt: formatTime(p.CreatedAt)}
		if p.ThumbnailURL != "" {
			thumb := p.ThumbnailURL
			photo.ThumbnailURL = &thumb
		}
		resp.Photos = append(resp.Photos, photo)
	}

	return resp
}

func displayName(r Reaction) string {
	u := user.User{Name: r.Name, Username: r.Username}
	return u.DisplayName()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}
