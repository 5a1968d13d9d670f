package discord

import "strings"

// Component custom ids are "<action>:<session id>" so one handler can
// route presses back to the owning wizard or viewer instance.
const (
	actionSelect  = "game-select"
	actionConfirm = "confirm-remove"
	actionPrev    = "prev"
	actionNext    = "next"
)

func customID(action, sessionID string) string {
	return action + ":" + sessionID
}

func parseCustomID(s string) (action, sessionID string, ok bool) {
	return strings.Cut(s, ":")
}
