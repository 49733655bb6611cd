package model

// RoomStatus enumerates room lifecycle states.
type RoomStatus string

const (
	RoomStatusWaiting    RoomStatus = "WAITING"
	RoomStatusInProgress RoomStatus = "IN_PROGRESS"
	RoomStatusFinished   RoomStatus = "FINISHED"
)

// ParticipantStatusReady is the status stored for every room member.
const ParticipantStatusReady = "READY"

// Room is a timed quiz owned by its creator.
type Room struct {
	ID             int64      `json:"room_id"`
	Code           string     `json:"room_code"`
	Name           string     `json:"room_name"`
	Description    string     `json:"description"`
	DurationSec    int64      `json:"duration_seconds"`
	TotalQuestions int        `json:"total_questions"`
	EasyCount      int        `json:"easy_count"`
	MediumCount    int        `json:"medium_count"`
	HardCount      int        `json:"hard_count"`
	Status         RoomStatus `json:"status"`
	CreatorID      int64      `json:"creator_id"`
	RoomPass       string     `json:"-"`
	StartedAt      *int64     `json:"started_at"`
	CreatedAt      int64      `json:"created_at"`
}

// Joinable reports whether students may still enter the room.
func (r *Room) Joinable() bool {
	return r.Status == RoomStatusWaiting || r.Status == RoomStatusInProgress
}

// RoomSummary is one row of the room listing.
type RoomSummary struct {
	ID               int64      `json:"room_id"`
	Code             string     `json:"room_code"`
	Name             string     `json:"room_name"`
	Status           RoomStatus `json:"status"`
	DurationSec      int64      `json:"duration_seconds"`
	CreatorID        int64      `json:"creator_id"`
	CreatorName      string     `json:"creator_name"`
	ParticipantCount int        `json:"participant_count"`
	StartedAt        *int64     `json:"started_at"`
}

// Participant is a member of a room.
type Participant struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Status   string `json:"status"`
	JoinedAt int64  `json:"joined_at"`
}

// RoomDetails is a room with its creator and members.
type RoomDetails struct {
	ID               int64         `json:"room_id"`
	Code             string        `json:"room_code"`
	Name             string        `json:"room_name"`
	Description      string        `json:"description"`
	DurationSec      int64         `json:"duration_seconds"`
	Status           RoomStatus    `json:"status"`
	CreatorID        int64         `json:"creator_id"`
	CreatorName      string        `json:"creator_name"`
	ParticipantCount int           `json:"participant_count"`
	Participants     []Participant `json:"participants"`
}
