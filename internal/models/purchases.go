package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PurchaseState string

const (
	StateQuoted           PurchaseState = "quoted"
	StateDepositAllocated PurchaseState = "deposit-allocated"
	StateDepositObserved  PurchaseState = "deposit-observed"
	StateSettled          PurchaseState = "settled"
	StateMinting          PurchaseState = "minting"
	StateCompleted        PurchaseState = "completed"
	StateExpired          PurchaseState = "expired"
	StateAbandoned        PurchaseState = "abandoned"
	StateFailed           PurchaseState = "failed"
)

// PendingStates are refreshed by the poller.
var PendingStates = []PurchaseState{StateQuoted, StateDepositAllocated, StateDepositObserved, StateSettled}

func (s PurchaseState) Terminal() bool {
	switch s {
	case StateCompleted, StateExpired, StateAbandoned, StateFailed:
		return true
	}
	return false
}

// Abandonable reports whether no funds can have reached the exchange yet.
func (s PurchaseState) Abandonable() bool {
	return s == StateQuoted || s == StateDepositAllocated
}

type Purchase struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	EventID         primitive.ObjectID `bson:"eventId" json:"eventId"`
	WalletAddress   string             `bson:"walletAddress" json:"walletAddress"`
	DepositCoin     string             `bson:"depositCoin" json:"depositCoin"`
	DepositNetwork  string             `bson:"depositNetwork" json:"depositNetwork"`
	SettleCoin      string             `bson:"settleCoin" json:"settleCoin"`
	SettleNetwork   string             `bson:"settleNetwork" json:"settleNetwork"`
	SettleAmount    string             `bson:"settleAmount" json:"settleAmount"`
	DepositAmount   string             `bson:"depositAmount" json:"depositAmount"`
	Rate            string             `bson:"rate" json:"rate"`
	QuoteID         string             `bson:"quoteId" json:"quoteId"`
	QuoteExpiresAt  time.Time          `bson:"quoteExpiresAt" json:"quoteExpiresAt"`
	ShiftID         string             `bson:"shiftId,omitempty" json:"shiftId,omitempty"`
	DepositAddress  string             `bson:"depositAddress,omitempty" json:"depositAddress,omitempty"`
	DepositMemo     string             `bson:"depositMemo,omitempty" json:"depositMemo,omitempty"`
	SettleAddress   string             `bson:"settleAddress,omitempty" json:"settleAddress,omitempty"`
	State           PurchaseState      `bson:"state" json:"state"`
	ShiftStatus     string             `bson:"shiftStatus,omitempty" json:"shiftStatus,omitempty"`
	TokenID         string             `bson:"tokenId,omitempty" json:"tokenId,omitempty"`
	TransactionHash string             `bson:"transactionHash,omitempty" json:"transactionHash,omitempty"`
	MetadataCID     string             `bson:"metadataCID,omitempty" json:"metadataCID,omitempty"`
	TicketNumber    int                `bson:"ticketNumber,omitempty" json:"ticketNumber,omitempty"`
	FailureReason   string             `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PurchaseUpdate moves a purchase to State and sets any non-empty field.
// A nil TicketNumber is left alone; zero clears the held seat.
type PurchaseUpdate struct {
	State           PurchaseState
	ShiftID         string
	DepositAddress  string
	DepositMemo     string
	DepositAmount   string
	SettleAddress   string
	ShiftStatus     string
	TokenID         string
	TransactionHash string
	MetadataCID     string
	FailureReason   string
	TicketNumber    *int
}

type PurchaseRepo interface {
	CreatePurchase(ctx context.Context, p *Purchase) (*Purchase, error)
	GetPurchaseByID(ctx context.Context, id primitive.ObjectID) (*Purchase, error)
	GetPurchaseByShiftID(ctx context.Context, shiftID string) (*Purchase, error)
	// TransitionPurchase applies update only while the purchase is in one of from.
	TransitionPurchase(ctx context.Context, id primitive.ObjectID, from []PurchaseState, update PurchaseUpdate) (*Purchase, error)
	ListPurchasesByState(ctx context.Context, states []PurchaseState, limit int) ([]*Purchase, error)
}

func (u PurchaseUpdate) SetFields(now time.Time) bson.M {
	set := bson.M{"state": u.State, "updatedAt": now}
	for field, v := range map[string]string{
		"shiftId":         u.ShiftID,
		"depositAddress":  u.DepositAddress,
		"depositMemo":     u.DepositMemo,
		"depositAmount":   u.DepositAmount,
		"settleAddress":   u.SettleAddress,
		"shiftStatus":     u.ShiftStatus,
		"tokenId":         u.TokenID,
		"transactionHash": u.TransactionHash,
		"metadataCID":     u.MetadataCID,
		"failureReason":   u.FailureReason,
	} {
		if v != "" {
			set[field] = v
		}
	}
	if u.TicketNumber != nil {
		set["ticketNumber"] = *u.TicketNumber
	}
	return set
}

func (u PurchaseUpdate) Apply(p *Purchase, now time.Time) {
	p.State = u.State
	p.UpdatedAt = now
	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setIf(&p.ShiftID, u.ShiftID)
	setIf(&p.DepositAddress, u.DepositAddress)
	setIf(&p.DepositMemo, u.DepositMemo)
	setIf(&p.DepositAmount, u.DepositAmount)
	setIf(&p.SettleAddress, u.SettleAddress)
	setIf(&p.ShiftStatus, u.ShiftStatus)
	setIf(&p.TokenID, u.TokenID)
	setIf(&p.TransactionHash, u.TransactionHash)
	setIf(&p.MetadataCID, u.MetadataCID)
	setIf(&p.FailureReason, u.FailureReason)
	if u.TicketNumber != nil {
		p.TicketNumber = *u.TicketNumber
	}
}

func ContainsState(states []PurchaseState, s PurchaseState) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}
