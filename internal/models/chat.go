package models

import "time"

// ChatSectionMapping ties a telegram chat to a class section so the bot
// knows which leaderboard to answer with.
type ChatSectionMapping struct {
	Section         string    `json:"section"`
	Name            string    `json:"name"`
	Comment         string    `json:"comment"`
	AssociationTime time.Time `json:"association_time"`
	RegisteredBy    int64     `json:"registered_by"`
}
