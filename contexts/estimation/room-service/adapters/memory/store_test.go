package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"pointdeck/contexts/estimation/room-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/room-service/domain/errors"
	"pointdeck/contexts/estimation/room-service/ports"
)

func TestCreateRoomRejectsDuplicateCode(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := entities.Room{RoomID: "r1", Code: "ABC234", Name: "One", OwnerID: "o1", Status: entities.RoomStatusActive}
	if err := store.CreateRoom(ctx, first); err != nil {
		t.Fatalf("first room: %v", err)
	}

	second := entities.Room{RoomID: "r2", Code: "ABC234", Name: "Two", OwnerID: "o2", Status: entities.RoomStatusActive}
	if err := store.CreateRoom(ctx, second); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate code, got %v", err)
	}
}

func TestGetRoomByCodeIsCaseInsensitive(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	room := entities.Room{RoomID: "r1", Code: "ABC234", Name: "One", OwnerID: "o1", Status: entities.RoomStatusActive}
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetRoomByCode(ctx, "abc234")
	if err != nil || got.RoomID != "r1" {
		t.Fatalf("lookup by lowercased code: room=%+v err=%v", got, err)
	}
}

func TestIdempotencyRecordExpiry(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	record := ports.IdempotencyRecord{
		Key:             "key-1",
		RequestHash:     "hash-a",
		ResponsePayload: []byte(`{"room_id":"r1"}`),
		ExpiresAt:       now.Add(time.Minute),
	}
	if err := store.PutRecord(ctx, record); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, found, err := store.GetRecord(ctx, "key-1", now)
	if err != nil || !found || got.RequestHash != "hash-a" {
		t.Fatalf("live record: found=%v err=%v", found, err)
	}

	_, found, err = store.GetRecord(ctx, "key-1", now.Add(2*time.Minute))
	if err != nil || found {
		t.Fatalf("expired record should not be found: found=%v err=%v", found, err)
	}
}

func TestNewCodeUsesAlphabet(t *testing.T) {
	store := NewStore()

	code := store.NewCode(entities.RoomCodeLength)
	if len(code) != entities.RoomCodeLength {
		t.Fatalf("expected %d chars, got %q", entities.RoomCodeLength, code)
	}
	for _, r := range code {
		found := false
		for _, allowed := range codeAlphabet {
			if r == allowed {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("character %q outside join-code alphabet", r)
		}
	}
}
