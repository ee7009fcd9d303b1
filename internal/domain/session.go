package domain

import "time"

// Session is a logged-in identity. ReadOnly sessions were opened with
// a public key only and cannot sign events.
type Session struct {
	Id        string
	Pubkey    Pubkey
	ReadOnly  bool
	CreatedAt time.Time
}

// Keypair is a freshly generated identity offered during onboarding.
// It is never persisted server-side.
type Keypair struct {
	Nsec   string
	Npub   string
	Pubkey Pubkey
}

// Preferences mirror the browser-local settings of the original
// client, persisted per pubkey across sessions.
type Preferences struct {
	Theme         string
	Accessibility []string
	Language      string
	UseAI         bool
}
