package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateRoomRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ScaleName   string `json:"scale_name,omitempty"`
}

type UpdateRoomRequest struct {
	Name      *string `json:"name,omitempty"`
	ScaleName *string `json:"scale_name,omitempty"`
	Status    *string `json:"status,omitempty"`
}

type JoinRoomRequest struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	AsObserver  bool   `json:"as_observer,omitempty"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type RoomResponse struct {
	RoomID       string   `json:"room_id"`
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	OwnerID      string   `json:"owner_id"`
	ScaleName    string   `json:"scale_name"`
	ScaleValues  []string `json:"scale_values"`
	ScaleUnknown string   `json:"scale_unknown"`
	Status       string   `json:"status"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
	Replayed     bool     `json:"replayed,omitempty"`
}

type ParticipantResponse struct {
	RoomID      string `json:"room_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	JoinedAt    string `json:"joined_at"`
}

type RoomDetailResponse struct {
	Room         RoomResponse          `json:"room"`
	Participants []ParticipantResponse `json:"participants"`
}

type RoomListResponse struct {
	Items []RoomResponse `json:"items"`
}

type JoinRoomResponse struct {
	Room        RoomResponse        `json:"room"`
	Participant ParticipantResponse `json:"participant"`
}
