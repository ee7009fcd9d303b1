package domain

import "time"

// to iterate thru layers: handler -> service -> relay
type ThreadCreationData struct {
	Title       string
	Description string
}

// Nil fields are left untouched when re-publishing the thread event.
type ThreadUpdate struct {
	Title           *string
	Description     *string
	ShowSubmissions *bool
}

type AgendaThread struct {
	Id              ThreadId
	Title           string
	Description     string
	StartDate       time.Time
	EndDate         time.Time
	ShowSubmissions bool
	Items           []AgendaItem
}

// IsActive reports whether t covers the given moment.
func (t AgendaThread) IsActive(now time.Time) bool {
	return !now.Before(t.StartDate) && now.Before(t.EndDate.Add(24*time.Hour))
}
