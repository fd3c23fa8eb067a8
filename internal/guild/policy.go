package guild

// IsAdmin reports whether the requester may run administrative commands.
//
// A requester qualifies by explicit membership in the guild's admin set, or
// by holding an administrator-equivalent role as reported by the transport
// layer. The check is evaluated fresh on every command and never cached:
// admin membership can change between commands.
func IsAdmin(cfg Config, requesterID string, hasAdminRole bool) bool {
	if _, ok := cfg.Admins[requesterID]; ok {
		return true
	}
	return hasAdminRole
}
