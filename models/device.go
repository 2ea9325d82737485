package models

type DeviceSystem string

const (
	SystemAndroid DeviceSystem = "ANDROID"
	SystemIOS     DeviceSystem = "IOS"
)

func (s DeviceSystem) Valid() bool {
	return s == SystemAndroid || s == SystemIOS
}

// Device is a push registration. DeviceID is stable per physical device
// and acts as the upsert key, PushID rotates.
type Device struct {
	ID       int          `json:"id" db:"id"`
	UserID   int          `json:"userId" db:"user_id"`
	DeviceID string       `json:"deviceId" db:"device_id"`
	PushID   string       `json:"pushId" db:"push_id"`
	System   DeviceSystem `json:"system" db:"system"`
}
