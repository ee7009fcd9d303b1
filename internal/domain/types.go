package domain

type (
	Pubkey   = string
	ThreadId = string
	ItemId   = string
	RelayURL = string
)
