package unit

import (
	"context"
	"errors"
	"testing"

	roomservice "pointdeck/contexts/estimation/room-service"
	"pointdeck/contexts/estimation/room-service/domain/entities"
	roomerrors "pointdeck/contexts/estimation/room-service/domain/errors"
	roomhttp "pointdeck/contexts/estimation/room-service/transport/http"
)

func createRoom(t *testing.T, module roomservice.Module, ownerID string, key string) roomhttp.RoomResponse {
	t.Helper()
	room, err := module.Handler.CreateRoomHandler(context.Background(), ownerID, key, roomhttp.CreateRoomRequest{
		Name:        "Sprint 42",
		DisplayName: "Sam",
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func TestCreateRoomDefaults(t *testing.T) {
	module := roomservice.NewInMemoryModule(nil)
	room := createRoom(t, module, "owner-1", "key-1")

	if len(room.Code) != entities.RoomCodeLength {
		t.Fatalf("expected %d-char code, got %q", entities.RoomCodeLength, room.Code)
	}
	if room.ScaleName != entities.DefaultScaleName {
		t.Fatalf("expected default scale, got %s", room.ScaleName)
	}
	if room.Status != string(entities.RoomStatusActive) {
		t.Fatalf("expected active room, got %s", room.Status)
	}

	detail, err := module.Handler.GetRoomHandler(context.Background(), room.RoomID, "owner-1")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if len(detail.Participants) != 1 {
		t.Fatalf("expected owner as sole participant, got %d", len(detail.Participants))
	}
	if detail.Participants[0].Role != string(entities.RoleFacilitator) {
		t.Fatalf("owner should be facilitator, got %s", detail.Participants[0].Role)
	}
}

func TestCreateRoomIdempotentReplay(t *testing.T) {
	module := roomservice.NewInMemoryModule(nil)
	ctx := context.Background()

	first := createRoom(t, module, "owner-1", "key-1")
	second, err := module.Handler.CreateRoomHandler(ctx, "owner-1", "key-1", roomhttp.CreateRoomRequest{
		Name:        "Sprint 42",
		DisplayName: "Sam",
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.RoomID != first.RoomID || !second.Replayed {
		t.Fatalf("replay should return the original room: %+v", second)
	}

	// Same key with a different body is rejected.
	_, err = module.Handler.CreateRoomHandler(ctx, "owner-1", "key-1", roomhttp.CreateRoomRequest{
		Name:        "Sprint 43",
		DisplayName: "Sam",
	})
	if !errors.Is(err, roomerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("expected ErrIdempotencyKeyConflict, got %v", err)
	}

	_, err = module.Handler.CreateRoomHandler(ctx, "owner-1", "", roomhttp.CreateRoomRequest{
		Name:        "Sprint 44",
		DisplayName: "Sam",
	})
	if !errors.Is(err, roomerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
}

func TestCreateRoomRejectsUnknownScale(t *testing.T) {
	module := roomservice.NewInMemoryModule(nil)

	_, err := module.Handler.CreateRoomHandler(context.Background(), "owner-1", "key-1", roomhttp.CreateRoomRequest{
		Name:        "Sprint 42",
		DisplayName: "Sam",
		ScaleName:   "golf",
	})
	if !errors.Is(err, roomerrors.ErrUnknownScale) {
		t.Fatalf("expected ErrUnknownScale, got %v", err)
	}
}

func TestJoinRoomByCode(t *testing.T) {
	module := roomservice.NewInMemoryModule(nil)
	ctx := context.Background()
	room := createRoom(t, module, "owner-1", "key-1")

	joined, err := module.Handler.JoinRoomHandler(ctx, "user-2", roomhttp.JoinRoomRequest{
		Code:        room.Code,
		DisplayName: "Alex",
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.Participant.Role != string(entities.RoleVoter) {
		t.Fatalf("default join role should be voter, got %s", joined.Participant.Role)
	}

	observer, err := module.Handler.JoinRoomHandler(ctx, "user-3", roomhttp.JoinRoomRequest{
		Code:        room.Code,
		DisplayName: "Kim",
		AsObserver:  true,
	})
	if err != nil {
		t.Fatalf("observer join: %v", err)
	}
	if observer.Participant.Role != string(entities.RoleObserver) {
		t.Fatalf("expected observer role, got %s", observer.Participant.Role)
	}

	// Rejoining keeps the existing role and refreshes the display name.
	rejoined, err := module.Handler.JoinRoomHandler(ctx, "user-3", roomhttp.JoinRoomRequest{
		Code:        room.Code,
		DisplayName: "Kim Lee",
	})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if rejoined.Participant.Role != string(entities.RoleObserver) || rejoined.Participant.DisplayName != "Kim Lee" {
		t.Fatalf("rejoin should keep role and refresh name: %+v", rejoined.Participant)
	}

	if _, err := module.Handler.JoinRoomHandler(ctx, "user-4", roomhttp.JoinRoomRequest{
		Code:        "ZZZZZZ",
		DisplayName: "Lost",
	}); !errors.Is(err, roomerrors.ErrRoomNotFound) {
		t.Fatalf("unknown code, got %v", err)
	}
}

func TestJoinClosedRoomRejected(t *testing.T) {
	module := roomservice.NewInMemoryModule(nil)
	ctx := context.Background()
	room := createRoom(t, module, "owner-1", "key-1")

	closed := "closed"
	if _, err := module.Handler.UpdateRoomHandler(ctx, room.RoomID, "owner-1", roomhttp.UpdateRoomRequest{
		Status: &closed,
	}); err != nil {
		t.Fatalf("close room: %v", err)
	}

	_, err := module.Handler.JoinRoomHandler(ctx, "user-2", roomhttp.JoinRoomRequest{
		Code:        room.Code,
		DisplayName: "Late",
	})
	if !errors.Is(err, roomerrors.ErrRoomClosed) {
		t.Fatalf("expected ErrRoomClosed, got %v", err)
	}
}

func TestUpdateRoomRequiresFacilitator(t *testing.T) {
	module := roomservice.NewInMemoryModule(nil)
	ctx := context.Background()
	room := createRoom(t, module, "owner-1", "key-1")

	if _, err := module.Handler.JoinRoomHandler(ctx, "user-2", roomhttp.JoinRoomRequest{
		Code:        room.Code,
		DisplayName: "Alex",
	}); err != nil {
		t.Fatalf("join: %v", err)
	}

	name := "Renamed"
	_, err := module.Handler.UpdateRoomHandler(ctx, room.RoomID, "user-2", roomhttp.UpdateRoomRequest{Name: &name})
	if !errors.Is(err, roomerrors.ErrForbidden) {
		t.Fatalf("voter must not update room, got %v", err)
	}

	updated, err := module.Handler.UpdateRoomHandler(ctx, room.RoomID, "owner-1", roomhttp.UpdateRoomRequest{Name: &name})
	if err != nil {
		t.Fatalf("facilitator update: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Fatalf("expected renamed room, got %s", updated.Name)
	}
}

func TestChangeRoleAndLastFacilitatorGuard(t *testing.T) {
	module := roomservice.NewInMemoryModule(nil)
	ctx := context.Background()
	room := createRoom(t, module, "owner-1", "key-1")

	if _, err := module.Handler.JoinRoomHandler(ctx, "user-2", roomhttp.JoinRoomRequest{
		Code:        room.Code,
		DisplayName: "Alex",
	}); err != nil {
		t.Fatalf("join: %v", err)
	}

	// The sole facilitator cannot step down or leave.
	voter := string(entities.RoleVoter)
	if _, err := module.Handler.ChangeRoleHandler(ctx, room.RoomID, "owner-1", "owner-1", roomhttp.ChangeRoleRequest{
		Role: voter,
	}); !errors.Is(err, roomerrors.ErrLastFacilitator) {
		t.Fatalf("expected ErrLastFacilitator, got %v", err)
	}
	if err := module.Handler.LeaveRoomHandler(ctx, room.RoomID, "owner-1"); !errors.Is(err, roomerrors.ErrLastFacilitator) {
		t.Fatalf("sole facilitator leave, got %v", err)
	}

	promoted, err := module.Handler.ChangeRoleHandler(ctx, room.RoomID, "user-2", "owner-1", roomhttp.ChangeRoleRequest{
		Role: string(entities.RoleFacilitator),
	})
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if promoted.Role != string(entities.RoleFacilitator) {
		t.Fatalf("expected facilitator, got %s", promoted.Role)
	}

	// With a second facilitator in place the owner may step down.
	if _, err := module.Handler.ChangeRoleHandler(ctx, room.RoomID, "owner-1", "owner-1", roomhttp.ChangeRoleRequest{
		Role: voter,
	}); err != nil {
		t.Fatalf("demote owner: %v", err)
	}

	// Demoted owners lose role-management rights.
	if _, err := module.Handler.ChangeRoleHandler(ctx, room.RoomID, "user-2", "owner-1", roomhttp.ChangeRoleRequest{
		Role: voter,
	}); !errors.Is(err, roomerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLeaveRemovesFromRoster(t *testing.T) {
	module := roomservice.NewInMemoryModule(nil)
	ctx := context.Background()
	room := createRoom(t, module, "owner-1", "key-1")

	if _, err := module.Handler.JoinRoomHandler(ctx, "user-2", roomhttp.JoinRoomRequest{
		Code:        room.Code,
		DisplayName: "Alex",
	}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := module.Handler.LeaveRoomHandler(ctx, room.RoomID, "user-2"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	detail, err := module.Handler.GetRoomHandler(ctx, room.RoomID, "owner-1")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if len(detail.Participants) != 1 {
		t.Fatalf("departed member should not be listed: %+v", detail.Participants)
	}

	// A removed member no longer reads the room.
	if _, err := module.Handler.GetRoomHandler(ctx, room.RoomID, "user-2"); !errors.Is(err, roomerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListRoomsByOwner(t *testing.T) {
	module := roomservice.NewInMemoryModule(nil)
	ctx := context.Background()

	createRoom(t, module, "owner-1", "key-1")
	createRoom(t, module, "owner-1", "key-2")
	createRoom(t, module, "owner-2", "key-3")

	list, err := module.Handler.ListRoomsHandler(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(list.Items))
	}
}

func TestGetRoomByCodePreview(t *testing.T) {
	module := roomservice.NewInMemoryModule(nil)
	room := createRoom(t, module, "owner-1", "key-1")

	preview, err := module.Handler.GetRoomByCodeHandler(context.Background(), room.Code)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.RoomID != room.RoomID {
		t.Fatalf("expected room %s, got %s", room.RoomID, preview.RoomID)
	}
}
