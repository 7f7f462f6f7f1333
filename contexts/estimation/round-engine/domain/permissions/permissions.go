package permissions

import (
	"pointdeck/contexts/estimation/round-engine/domain/entities"
)

type Action string

const (
	ActionStartRound    Action = "start_round"
	ActionCastVote      Action = "cast_vote"
	ActionReveal        Action = "reveal"
	ActionFinalize      Action = "finalize"
	ActionStartNewRound Action = "start_new_round"
	ActionManageStory   Action = "manage_story"
)

// ruleTable is the entire permission matrix. Facilitators drive the round
// lifecycle, voters cast votes, observers watch. Roles absent from a row are
// denied, and a missing participant record denies everything upstream.
var ruleTable = map[Action]map[entities.ParticipantRole]bool{
	ActionStartRound:    {entities.RoleFacilitator: true},
	ActionCastVote:      {entities.RoleVoter: true},
	ActionReveal:        {entities.RoleFacilitator: true},
	ActionFinalize:      {entities.RoleFacilitator: true},
	ActionStartNewRound: {entities.RoleFacilitator: true},
	ActionManageStory:   {entities.RoleFacilitator: true},
}

// Allowed reports whether role may perform action. Pure lookup, no side
// effects.
func Allowed(role entities.ParticipantRole, action Action) bool {
	row, ok := ruleTable[action]
	if !ok {
		return false
	}
	return row[role]
}
