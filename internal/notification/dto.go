// AngelaMos | 2026
// dto.go

package notification

type TokenRequest struct {
	Token string `json:"token"`
}

type TestRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type TestResponse struct {
	OK                   bool `json:"ok"`
	SentCount            int  `json:"sentCount"`
	FailedCount          int  `json:"failedCount"`
	InvalidTokensRemoved int  `json:"invalidTokensRemoved"`
}
