// Structure of Estimate Model in Smeta.

package entity

import "time"

// Estimate is the snapshot of an estimate row needed to shape change-event payloads.
// Foreman and client references are optional on the underlying schema, a zero ID
// means the reference is unset.
type Estimate struct {
	ID          uint64    `json:"estimate_id"`
	Number      string    `json:"estimate_number"`
	ProjectID   uint64    `json:"project_id"`
	ProjectName string    `json:"project_name"`
	ForemanID   uint64    `json:"foreman_id"`
	ForemanName string    `json:"foreman_name"`
	CreatorID   uint64    `json:"creator_id"`
	CreatorName string    `json:"creator_name"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// EstimateChange describes one committed write on an estimate.
// ActorID is the user who performed the write, 0 when unknown.
type EstimateChange struct {
	Op       ChangeOp
	Estimate Estimate
	ActorID  uint64
}
