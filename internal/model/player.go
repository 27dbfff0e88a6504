package model

type PlayerID string

const EmptyPlayerID PlayerID = ""

type Player struct {
	ID        PlayerID
	Name      string
	Connected bool
}
