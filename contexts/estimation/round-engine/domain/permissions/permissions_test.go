package permissions

import (
	"testing"

	"pointdeck/contexts/estimation/round-engine/domain/entities"
)

func TestFacilitatorDrivesRoundLifecycle(t *testing.T) {
	for _, action := range []Action{
		ActionStartRound, ActionReveal, ActionFinalize, ActionStartNewRound, ActionManageStory,
	} {
		if !Allowed(entities.RoleFacilitator, action) {
			t.Fatalf("facilitator should be allowed %s", action)
		}
	}
	if Allowed(entities.RoleFacilitator, ActionCastVote) {
		t.Fatalf("facilitator must not cast votes")
	}
}

func TestVoterOnlyCastsVotes(t *testing.T) {
	if !Allowed(entities.RoleVoter, ActionCastVote) {
		t.Fatalf("voter should be allowed to cast votes")
	}
	for _, action := range []Action{
		ActionStartRound, ActionReveal, ActionFinalize, ActionStartNewRound, ActionManageStory,
	} {
		if Allowed(entities.RoleVoter, action) {
			t.Fatalf("voter must not be allowed %s", action)
		}
	}
}

func TestObserverIsReadOnly(t *testing.T) {
	for _, action := range []Action{
		ActionStartRound, ActionCastVote, ActionReveal, ActionFinalize, ActionStartNewRound, ActionManageStory,
	} {
		if Allowed(entities.RoleObserver, action) {
			t.Fatalf("observer must not be allowed %s", action)
		}
	}
}

func TestUnknownRoleAndActionDenied(t *testing.T) {
	if Allowed(entities.ParticipantRole("removed"), ActionCastVote) {
		t.Fatalf("removed participant must be denied")
	}
	if Allowed(entities.RoleFacilitator, Action("delete_room")) {
		t.Fatalf("unlisted action must be denied")
	}
}
