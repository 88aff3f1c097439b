package iid

// Request format:
// https://developers.google.com/instance-id/reference/server#create_registration_tokens_for_apns_tokens
type Request struct {
	Application string   `json:"application"`
	Sandbox     bool     `json:"sandbox"`
	APNSTokens  []string `json:"apns_tokens"`
}
