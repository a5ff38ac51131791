package presence

// Player is a snapshot of one occupant's state, safe to hold after the
// originating Session call returns and shaped for the wire (the connection id
// never serializes).
type Player struct {
	// UID is the stable account identity; exactly one Player per UID per Session.
	UID string `json:"uid"`
	// Username is the display name shown to other occupants.
	Username string `json:"username"`
	// Skin is the avatar skin code.
	Skin string `json:"skin"`
	// X, Y are room-local grid coordinates.
	X int `json:"x"`
	Y int `json:"y"`
	// Room is the index into the realm's room list.
	Room int `json:"room"`
	// ProximityID is the shared audio/video group id, or nil when the player
	// is out of range of everyone.
	ProximityID *string `json:"proximityId"`
	// Conn is the opaque connection id used for point-to-point delivery.
	Conn string `json:"-"`
}

// playerRecord is the mutable server-side state for one occupant. All access
// goes through the owning Session's mutex.
type playerRecord struct {
	uid         string
	username    string
	skin        string
	x, y        int
	room        int
	connID      string
	proximityID string // empty means no group
}

func (r *playerRecord) snapshot() Player {
	p := Player{
		UID:      r.uid,
		Username: r.username,
		Skin:     r.skin,
		X:        r.x,
		Y:        r.y,
		Room:     r.room,
		Conn:     r.connID,
	}
	if r.proximityID != "" {
		id := r.proximityID
		p.ProximityID = &id
	}
	return p
}
