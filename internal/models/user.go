package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TicketStatusValid    = "valid"
	TicketStatusUsed     = "used"
	TicketStatusRefunded = "refunded"
)

type Ticket struct {
	EventID         primitive.ObjectID `bson:"eventId" json:"eventId"`
	TokenID         string             `bson:"tokenId" json:"tokenId"`
	PurchaseDate    time.Time          `bson:"purchaseDate" json:"purchaseDate"`
	TransactionHash string             `bson:"transactionHash" json:"transactionHash"`
	ShiftID         string             `bson:"shiftId,omitempty" json:"shiftId,omitempty"`
	Status          string             `bson:"status" json:"status"`
}

type User struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	WalletAddress string               `bson:"walletAddress" json:"walletAddress"`
	CreatedEvents []primitive.ObjectID `bson:"createdEvents" json:"createdEvents"`
	Tickets       []Ticket             `bson:"tickets" json:"tickets"`
	TotalSpent    float64              `bson:"totalSpent" json:"totalSpent"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// UserRepo methods take lower-case wallet addresses and create the user when absent.
type UserRepo interface {
	UpsertUser(ctx context.Context, wallet string) (*User, error)
	AddCreatedEvent(ctx context.Context, wallet string, eventID primitive.ObjectID) (*User, error)
	AddTicket(ctx context.Context, wallet string, ticket Ticket, spent float64) (*User, error)
}

func NewUser(wallet string, now time.Time) *User {
	return &User{
		ID:            primitive.NewObjectID(),
		WalletAddress: wallet,
		CreatedEvents: []primitive.ObjectID{},
		Tickets:       []Ticket{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
