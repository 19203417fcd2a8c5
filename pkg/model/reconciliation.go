package model

import (
	"abclisting/pkg/availability"
	"time"
)

type ReconciliationStatus string

const (
	ReconciliationOpen     ReconciliationStatus = "open"
	ReconciliationResolved ReconciliationStatus = "resolved"
)

// Reconciliation records a charge that succeeded without its booking being
// persisted. It is keyed by the reservation intent id.
type Reconciliation struct {
	IntentID  string               `json:"intent_id" bson:"_id"`
	ChargeID  string               `json:"charge_id" bson:"charge_id"`
	Listing   string               `json:"listing" bson:"listing"`
	Tenant    string               `json:"tenant" bson:"tenant"`
	Host      string               `json:"host" bson:"host"`
	Amount    int64                `json:"amount" bson:"amount"`
	Currency  string               `json:"currency" bson:"currency"`
	CheckIn   availability.Date    `json:"check_in" bson:"check_in"`
	CheckOut  availability.Date    `json:"check_out" bson:"check_out"`
	Cause     string               `json:"cause" bson:"cause"`
	Status    ReconciliationStatus `json:"status" bson:"status"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
}
