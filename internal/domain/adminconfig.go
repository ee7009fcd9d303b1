package domain

// AdminConfig is the authoritative moderation record. When several
// config events exist, the one with the newest created_at wins.
type AdminConfig struct {
	Admins                   []Pubkey
	DefaultRelay             RelayURL
	AdditionalRelays         []RelayURL
	ThreadAutoCreation       bool
	ShowSubmissionsByDefault bool
}

// DefaultAdminConfig is the closed-by-default fallback used when no
// config event is resolvable: no admins, behavior booleans on.
func DefaultAdminConfig() AdminConfig {
	return AdminConfig{
		Admins:                   []Pubkey{},
		AdditionalRelays:         []RelayURL{},
		ThreadAutoCreation:       true,
		ShowSubmissionsByDefault: true,
	}
}

// Relays returns the full relay set, default first.
func (c AdminConfig) Relays() []RelayURL {
	if c.DefaultRelay == "" {
		return c.AdditionalRelays
	}
	return append([]RelayURL{c.DefaultRelay}, c.AdditionalRelays...)
}
