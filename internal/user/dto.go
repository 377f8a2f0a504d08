// AngelaMos | 2026
// dto.go

package user

type Response struct {
	ID                 string  `json:"id"`
	Role               string  `json:"role"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Username           *string `json:"username"`
	AvatarURL          *string `json:"avatarUrl"`
	CompanyID          *string `json:"companyId"`
	CompanyAccessLevel string  `json:"companyAccessLevel"`
}

func ToResponse(u *User) Response {
	resp := Response{
		ID:                 u.ID,
		Role:               u.Role,
		Name:               u.Name,
		Email:              u.Email,
		CompanyAccessLevel: string(u.AccessLevel()),
	}
	if username := u.UsernameValue(); username != "" {
		resp.Username = &username
	}
	if u.AvatarURL != "" {
		avatar := u.AvatarURL
		resp.AvatarURL = &avatar
	}
	if companyID := u.CompanyIDValue(); companyID != "" {
		resp.CompanyID = &companyID
	}
	return resp
}

// MemberResponse is the team listing shape.
type MemberResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	CompanyAccessLevel string `json:"companyAccessLevel"`
}

func ToMemberResponse(u *User) MemberResponse {
	return MemberResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               u.Role,
		CompanyAccessLevel: string(u.AccessLevel()),
	}
}

func ToMemberResponseList(users []User) []MemberResponse {
	responses := make([]MemberResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToMemberResponse(&users[i]))
	}
	return responses
}

// AccountResponse is the assigned-client shape embedded in properties.
type AccountResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatarUrl"`
}

func ToAccountResponse(u *User) AccountResponse {
	resp := AccountResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Username: u.UsernameValue(),
	}
	if u.AvatarURL != "" {
		avatar := u.AvatarURL
		resp.AvatarURL = &avatar
	}
	return resp
}
