package iid

const StatusOK = "OK"

type Response struct {
	StatusCode int      `json:"-"`
	Results    []Result `json:"results"`
	Error      string   `json:"error,omitempty"`
}

type Result struct {
	APNSToken         string `json:"apns_token"`
	Status            string `json:"status"`
	RegistrationToken string `json:"registration_token,omitempty"`
}

func (r *Response) Ok() bool {
	return r.StatusCode == 200 && len(r.Error) == 0
}
