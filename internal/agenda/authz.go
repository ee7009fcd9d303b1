package agenda

import "github.com/kep-app/kep/internal/domain"

// IsAdmin reports whether pubkey may moderate according to cfg. Pure
// and total: an empty admin set means nobody is an admin, and the
// enforcement of the result belongs to the caller.
func IsAdmin(pubkey domain.Pubkey, cfg domain.AdminConfig) bool {
	for _, admin := range cfg.Admins {
		if admin == pubkey {
			return true
		}
	}
	return false
}
