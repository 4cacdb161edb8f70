// Structure of Project Model in Smeta.

package entity

import "time"

// Project is the snapshot of a project row needed to shape change-event payloads.
type Project struct {
	ID          uint64    `json:"project_id"`
	Name        string    `json:"project_name"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectChange describes one committed write on a project.
// ActorID is the user who performed the write, 0 when unknown.
type ProjectChange struct {
	Op      ChangeOp
	Project Project
	ActorID uint64
}
