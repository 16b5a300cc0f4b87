package controller

import "boardsense.dev/sentinel/internal/model"

// allowedUICommandKinds is the closed set spec §4.8 step 9 names.
var allowedUICommandKinds = map[string]bool{
	"load_position": true, "new_tab": true, "navigate": true, "annotate": true,
	"push_move": true, "set_fen": true, "set_pgn": true, "delete_move": true,
	"delete_variation": true, "promote_variation": true, "set_ai_game": true,
}

// mutatingUICommandKinds are filtered out in non-PLAY modes unless the
// request explicitly allows UI mutations (spec §4.8 step 9).
var mutatingUICommandKinds = map[string]bool{
	"push_move": true, "delete_move": true, "delete_variation": true,
	"promote_variation": true, "set_ai_game": true,
}

// validateUICommands drops anything outside the allowed action set, then
// filters mutating commands when mode isn't PLAY and mutations aren't
// explicitly allowed (spec §4.8 step 9).
func validateUICommands(cmds []model.UICommand, mode string, allowMutations bool) []model.UICommand {
	out := make([]model.UICommand, 0, len(cmds))
	for _, c := range cmds {
		if !allowedUICommandKinds[c.Kind] {
			continue
		}
		if mode != "play" && !allowMutations && mutatingUICommandKinds[c.Kind] {
			continue
		}
		out = append(out, c)
	}
	return out
}
