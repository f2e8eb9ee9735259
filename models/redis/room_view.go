package redis

// RoomView is the denormalized room snapshot cached in Redis for the
// listing and socket.io read paths. It mirrors the committed Postgres
// state and is refreshed by the sync manager after every mutation.
type RoomView struct {
	Id             string `json:"id"`
	OwnerUsername  string `json:"owner_username"`
	Title          string `json:"title"`
	Location       string `json:"location"`
	Price          int    `json:"price"`
	RoomType       string `json:"room_type"`
	Status         string `json:"status"`
	MaxOccupants   int    `json:"max_occupants"`
	ApplicantCount int    `json:"applicant_count"`
	PartyCount     int    `json:"party_count"`
	SelectedKind   string `json:"selected_kind"`
	SelectedId     string `json:"selected_id"`
}
