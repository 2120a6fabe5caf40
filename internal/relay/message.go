package relay

// Inbound and outbound frame kinds
const (
	TypeIdentify       = "identify"
	TypeLocation       = "location"
	TypeIdentified     = "identified"
	TypeLocationUpdate = "location-update"
	TypeError          = "error"
)

// clientMessage is the single inbound frame shape.
// Lat and Lng are pointers so a missing field is distinguishable from zero;
// a frame with wrong field types fails to unmarshal at all
type clientMessage struct {
	Type        string   `json:"type"`
	AccessToken string   `json:"accessToken"`
	TargetID    string   `json:"targetId"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

type identifiedMessage struct {
	Type   string `json:"type"`
	UserID int64  `json:"userId"`
}

type locationUpdateMessage struct {
	Type string  `json:"type"`
	From int64   `json:"from"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
