package domain

import "time"

// PartyType classifies a ledger participant.
type PartyType string

const (
	PartyTypeUser        PartyType = "USER"
	PartyTypeLegalEntity PartyType = "LEGAL_ENTITY"
	PartyTypeSystem      PartyType = "SYSTEM"
)

// Party is a ledger participant: a fund member or the fund itself.
// A party is created once per owner identifier on first ledger
// interaction and is immutable afterwards except for Details.
type Party struct {
	ID        string
	Type      PartyType
	OwnerID   string
	Details   map[string]any
	CreatedAt time.Time
}
