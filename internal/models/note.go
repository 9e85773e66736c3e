// Package models defines the domain types for Dagaz.
package models

import "time"

// Note is a user-authored sticky note attached to a target record.
type Note struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	Text             string     `json:"text"`
	Completed        bool       `json:"completed"`
	Public           bool       `json:"public"`
	CreatedAt        time.Time  `json:"created_at"`
	DueBy            *time.Time `json:"due_by,omitempty"`
	TargetObjectType string     `json:"target_object_type,omitempty"`
	TargetObjectName string     `json:"target_object_name,omitempty"`
	Owner            Owner      `json:"owner"`
	Checksum         string     `json:"checksum,omitempty"`
}

// Owner carries the display attributes of a note's owning user.
type Owner struct {
	Name      string `json:"name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

// Reminder is a per-user notification subscription on a note.
type Reminder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	NoteID    string    `json:"note_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is a lookup target that notes reference by display name.
type Record struct {
	ID         string `json:"id"`
	ObjectType string `json:"object_type"`
	Name       string `json:"name"`
}
