package controller

import "strings"

// fastRouteResult is emitted when a deterministic shortcut applies (spec
// §4.8 step 1): no LLM or engine work runs at all.
type fastRouteResult struct {
	Handled    bool
	Content    string
	StopReason string
}

// playIntentPhrases are a tiny closed set of phrases that unambiguously ask
// to play a game rather than analyze one (spec §4.8 step 1's fast-route
// shortcut), matched as substrings rather than a regex table.
var playIntentPhrases = []string{
	"play against you", "play a game", "let's play", "lets play", "want to play chess",
}

// tryFastRoute implements spec §4.8 step 1: a zero-token deterministic path
// for trivial requests (play-intent redirect, empty message echo).
func tryFastRoute(userMessage string) fastRouteResult {
	msg := strings.ToLower(strings.TrimSpace(userMessage))
	if msg == "" {
		return fastRouteResult{
			Handled:    true,
			Content:    "I didn't receive a message to analyze. What would you like to look at?",
			StopReason: "empty_message",
		}
	}
	for _, phrase := range playIntentPhrases {
		if strings.Contains(msg, phrase) {
			return fastRouteResult{
				Handled:    true,
				Content:    "You can play directly through the options menu to start a game.",
				StopReason: "play_intent_detected",
			}
		}
	}
	return fastRouteResult{}
}
