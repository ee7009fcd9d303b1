// Package agenda maps Kep's domain records onto generic Nostr events
// and back. Kind numbers and tag names below are the compatibility
// surface shared with every other client reading the same event
// stream and must not change.
package agenda

const (
	KindTextNote          = 1     // agenda items
	KindAgendaThread      = 30001 // parameterized replaceable weekly thread
	KindApplicationConfig = 30002 // kep admin config
)

const (
	TagIdentifier = "d"
	TagTitle      = "title"
	TagStart      = "start"
	TagEnd        = "end"
	TagShow       = "show"
	TagCategory   = "t"
	TagThreadRef  = "thread"
	TagAnonymous  = "anonymous"
	TagPriority   = "priority"
	TagStarred    = "starred"
	TagAdmins     = "admins"
	TagRelay      = "relay"
	TagEventRef   = "e"
)

const (
	CategoryThread   = "kep-agenda-thread"
	CategoryItem     = "kep-agenda-item"
	ConfigIdentifier = "kep-config"
)

const DefaultThreadTitle = "Unnamed Thread"
