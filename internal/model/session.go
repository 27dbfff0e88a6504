package model

type SessionCode string

const EmptySessionCode SessionCode = ""

const (
	StatusLobby    = "lobby"
	StatusVoting   = "voting"
	StatusFinished = "finished"
)

type VoteStyle string

const (
	StyleOneByOne VoteStyle = "one-by-one"
	StyleGrouped  VoteStyle = "grouped"
	StyleHybrid   VoteStyle = "hybrid"
)

type GroupLabel string

const (
	GroupA GroupLabel = "A"
	GroupB GroupLabel = "B"
)
