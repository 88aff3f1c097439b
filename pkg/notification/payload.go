package notification

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
)

// Well-known payload keys.
const (
	KeyAPS       = "aps"
	KeyMessageID = "gcm.message_id"
)

// Payload is the user info dictionary of a delivered notification.
type Payload map[string]interface{}

// Encode serializes the payload into the JSON string forwarded to the
// cross-platform layer. A nil payload is an empty dictionary.
func Encode(p Payload) (string, error) {

	if p == nil {
		p = Payload{}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", errors.Wrap(err, "notification: encode")
	}

	return string(data), nil
}

func Decode(src string) (Payload, error) {

	p := Payload{}
	if err := json.Unmarshal([]byte(src), &p); err != nil {
		return nil, errors.Wrap(err, "notification: decode")
	}

	if p == nil {
		// null
		p = Payload{}
	}

	return p, nil
}

// DeviceTokenString renders an APNs device token as lowercase hex.
func DeviceTokenString(token []byte) string {
	return hex.EncodeToString(token)
}

func ParseDeviceToken(src string) ([]byte, error) {

	if len(src) == 0 {
		return nil, errors.New("notification: empty device token")
	}

	token, err := hex.DecodeString(src)
	if err != nil {
		return nil, errors.Wrap(err, "notification: device token")
	}

	return token, nil
}
