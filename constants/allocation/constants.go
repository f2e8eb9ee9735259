package allocation_constants

// Room lifecycle states
const (
	RoomStatusAvailable = "available"
	RoomStatusPending   = "pending"
	RoomStatusTaken     = "taken"
)

// Room types, decide which application path is legal
const (
	RoomTypeSingleTenant = "single_tenant"
	RoomTypeMultiTenant  = "multi_tenant"
)

// Party lifecycle states
const (
	PartyStatusOpen   = "open"
	PartyStatusFull   = "full"
	PartyStatusClosed = "closed"
)

// Kinds for a room's selected applicant reference
const (
	SelectedKindUser  = "user"
	SelectedKindParty = "party"
)

// Generated id lengths for rooms and parties
const RoomIDLength = 6
const PartyIDLength = 6

// TTL (hours) for cached room views in Redis
const RoomViewTTLHours = 24
