package domain

// GuestUserID is the sentinel identity for non-authenticated users.
// Guest data lives only in the local store: it is never pushed to or pulled
// from the remote mirror, and guest-owned rows form a single shared bucket
// that is never filtered by id.
const GuestUserID = "guest"

// IsGuest reports whether the id is the guest sentinel (or empty, which is
// treated the same way everywhere identity is consumed).
func IsGuest(userID string) bool {
	return userID == "" || userID == GuestUserID
}

// Preference keys stored as independent scalar entries in the local store.
const (
	PrefSoundEnabled   = "sound_enabled"
	PrefAutoAdvance    = "auto_advance"
	PrefTheme          = "theme"
	PrefRestTimerSec   = "rest_timer_sec"
	PrefHapticsEnabled = "haptics_enabled"
	PrefReducedMotion  = "reduced_motion"
	PrefVoiceNav       = "voice_nav"
)
