package tags

import (
	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

var coreCenter = []string{"d4", "e4", "d5", "e5"}
var nearCenter = []string{"c4", "f4", "c5", "f5"}

// detectCenterSpaceTags: center control counts, per-key-square controllers,
// and a space-advantage tag (spec §4.1 "Center/space").
func detectCenterSpaceTags(s *snapshot, side model.Color) []model.Tag {
	opp := side.Opposite()
	var out []model.Tag

	controlledCore := 0
	for _, sq := range coreCenter {
		ownAtt, _ := rules.Attackers(s.g, sq, side)
		oppAtt, _ := rules.Attackers(s.g, sq, opp)
		if len(ownAtt) > len(oppAtt) {
			controlledCore++
		}
		if len(ownAtt) > 0 {
			out = append(out, model.Tag{
				Name:    "tag.key." + sq,
				Side:    side,
				Squares: []string{sq},
				Details: map[string]any{"controllers": ownAtt},
			})
		}
	}
	controlledNear := 0
	for _, sq := range nearCenter {
		ownAtt, _ := rules.Attackers(s.g, sq, side)
		oppAtt, _ := rules.Attackers(s.g, sq, opp)
		if len(ownAtt) > len(oppAtt) {
			controlledNear++
		}
	}
	if controlledCore > 0 {
		out = append(out, model.Tag{
			Name:    "tag.center.control",
			Side:    side,
			Details: map[string]any{"core_squares_controlled": controlledCore, "near_squares_controlled": controlledNear},
		})
	}

	ownHalf, oppHalf := halves(side)
	ownControlledInEnemyHalf := countControlled(s, side, oppHalf)
	oppControlledInOwnHalf := countControlled(s, opp, ownHalf)
	if ownControlledInEnemyHalf-oppControlledInOwnHalf > 5 {
		out = append(out, model.Tag{
			Name: "tag.space.advantage",
			Side: side,
			Details: map[string]any{
				"controlled_in_enemy_half": ownControlledInEnemyHalf,
				"opp_controlled_in_own_half": oppControlledInOwnHalf,
			},
		})
	}
	return out
}

// halves returns the rank range (inclusive, 0-indexed) side calls "own" and
// the range it calls "enemy".
func halves(side model.Color) (own [2]int, enemy [2]int) {
	if side == model.White {
		return [2]int{0, 3}, [2]int{4, 7}
	}
	return [2]int{4, 7}, [2]int{0, 3}
}

func countControlled(s *snapshot, side model.Color, rankRange [2]int) int {
	count := 0
	for r := rankRange[0]; r <= rankRange[1]; r++ {
		for f := 0; f < 8; f++ {
			sq := squareName(f, r)
			att, _ := rules.Attackers(s.g, sq, side)
			if len(att) > 0 {
				count++
			}
		}
	}
	return count
}
