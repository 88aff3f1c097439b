package bridge

import "fmt"

const (
	MethodUnknown            Method = 0
	MethodTokenReceived      Method = 1
	MethodTokenRefreshed     Method = 2
	MethodNotificationTapped Method = 3
)

// Argument keys carried by bridge invocations.
const (
	ArgToken        = "token"
	ArgNotification = "notification"
)

type Method int

var _MethodNames = map[Method]string{
	MethodUnknown:            "unknown",
	MethodTokenReceived:      "onFCMTokenReceived",
	MethodTokenRefreshed:     "onFCMTokenRefreshed",
	MethodNotificationTapped: "onNotificationTapped",
}

func MethodStringKeys() []string {
	return []string{
		MethodTokenReceived.String(),
		MethodTokenRefreshed.String(),
		MethodNotificationTapped.String(),
	}
}

func MethodByString(src string) Method {
	for m, name := range _MethodNames {
		if name == src {
			return m
		}
	}

	return MethodUnknown
}

func (m Method) String() string {
	val, ok := _MethodNames[m]
	if !ok {
		return fmt.Sprintf("invalid bridge method: %d", m)
	}

	return val
}
