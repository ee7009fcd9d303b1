package domain

type User struct {
	Pubkey Pubkey
	Name   string
}

type AgendaItem struct {
	Id          ItemId
	Content     string
	SubmittedBy *User // nil for anonymous submissions
	CreatedAt   int64 // seconds since epoch
	IsAnonymous bool
	Priority    *int // lower sorts first, nil sorts after any set priority
	Starred     bool
}

type ItemCreationData struct {
	ThreadId    ThreadId
	Content     string
	IsAnonymous bool
}

// Nil fields are left untouched when re-publishing the item event.
type ItemUpdate struct {
	Priority *int
	Starred  *bool
}

// ItemGroup is one bucket produced by the grouping heuristic.
type ItemGroup struct {
	Title string
	Items []AgendaItem
}
