package notification

import "fmt"

// FetchResult is reported to the OS when background handling of a silent
// notification completes.
type FetchResult int

const (
	FetchResultNewData FetchResult = 0
	FetchResultNoData  FetchResult = 1
	FetchResultFailed  FetchResult = 2
)

func (r FetchResult) String() string {
	switch r {
	case FetchResultNewData:
		return "new-data"
	case FetchResultNoData:
		return "no-data"
	case FetchResultFailed:
		return "failed"
	default:
		return fmt.Sprintf("invalid fetch result: %d", int(r))
	}
}

// SilentInfo holds the diagnostic fields of a data-only notification.
type SilentInfo struct {
	APS       map[string]interface{}
	MessageID string
}

func (i *SilentInfo) HasAPS() bool {
	return i.APS != nil
}

// InspectSilent extracts the aps dictionary and the messaging message id when
// present. Fields of unexpected shape are ignored.
func InspectSilent(p Payload) *SilentInfo {

	info := &SilentInfo{}
	if p == nil {
		return info
	}

	if aps, ok := p[KeyAPS].(map[string]interface{}); ok {
		info.APS = aps
	}

	if id, ok := p[KeyMessageID]; ok && id != nil {
		info.MessageID = fmt.Sprint(id)
	}

	return info
}
