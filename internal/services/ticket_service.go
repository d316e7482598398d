package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/eventnest/internal/helpers"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/monitoring"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TicketService struct {
	eventsRepo    models.EventRepo
	usersRepo     models.UserRepo
	purchasesRepo models.PurchaseRepo
	resolver      TokenResolver
	logger        *slog.Logger
	now           func() time.Time
}

// NewTicketService builds the service; resolver may be nil when no chain client is configured.
func NewTicketService(eventsRepo models.EventRepo, usersRepo models.UserRepo, purchasesRepo models.PurchaseRepo, resolver TokenResolver, logger *slog.Logger) *TicketService {
	return &TicketService{
		eventsRepo:    eventsRepo,
		usersRepo:     usersRepo,
		purchasesRepo: purchasesRepo,
		resolver:      resolver,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type PurchaseConfirmation struct {
	WalletAddress   string `json:"walletAddress"`
	TransactionHash string `json:"transactionHash"`
	TokenID         string `json:"tokenId"`
	ShiftID         string `json:"shiftId"`
}

type PurchaseReceipt struct {
	TicketNumber int    `json:"ticketNumber"`
	TokenID      string `json:"tokenId"`
	ShiftID      string `json:"shiftId,omitempty"`
}

// SynthesizeTokenID is used when neither the caller nor the chain supplies a token id.
func SynthesizeTokenID(eventID primitive.ObjectID, sold int) string {
	return fmt.Sprintf("%s-%d", eventID.Hex(), sold)
}

// ConfirmPurchase records a ticket the client has already paid for and minted.
func (ts *TicketService) ConfirmPurchase(ctx context.Context, eventID string, in PurchaseConfirmation) (*PurchaseReceipt, error) {
	if verr := missingFields(
		[2]string{"walletAddress", in.WalletAddress},
		[2]string{"transactionHash", in.TransactionHash},
	); verr != nil {
		return nil, verr
	}
	oid, err := ParseObjectID(eventID)
	if err != nil {
		return nil, err
	}
	wallet := helpers.NormalizeAddress(in.WalletAddress)

	event, err := ts.Reserve(ctx, oid, wallet)
	if err != nil {
		return nil, err
	}

	tokenID := ts.resolveTokenID(ctx, event, in.TokenID, in.TransactionHash)
	ticket := models.Ticket{
		EventID:         oid,
		TokenID:         tokenID,
		PurchaseDate:    ts.now(),
		TransactionHash: strings.TrimSpace(in.TransactionHash),
		ShiftID:         strings.TrimSpace(in.ShiftID),
		Status:          models.TicketStatusValid,
	}
	if err := ts.Issue(ctx, event, wallet, ticket); err != nil {
		return nil, err
	}

	if ticket.ShiftID != "" {
		ts.completeShiftPurchase(ctx, wallet, ticket)
	}

	return &PurchaseReceipt{
		TicketNumber: event.SoldTickets,
		TokenID:      tokenID,
		ShiftID:      ticket.ShiftID,
	}, nil
}

func (ts *TicketService) resolveTokenID(ctx context.Context, event *models.Event, supplied, txHash string) string {
	if id := strings.TrimSpace(supplied); id != "" {
		return id
	}
	if ts.resolver != nil {
		id, err := ts.resolver.TokenIDFromTx(ctx, txHash)
		if err == nil && id != "" {
			return id
		}
		ts.logger.Warn("Token id not found on chain, synthesizing", "tx_hash", txHash, "error", err)
	}
	return SynthesizeTokenID(event.ID, event.SoldTickets)
}

// Reserve takes one seat; the counter never moves for a sold-out event.
func (ts *TicketService) Reserve(ctx context.Context, eventID primitive.ObjectID, wallet string) (*models.Event, error) {
	event, err := ts.eventsRepo.ClaimTicket(ctx, eventID, wallet)
	if err != nil {
		if errors.Is(err, models.ErrSoldOut) {
			ts.logger.Info("Purchase rejected, event sold out", "event_id", eventID.Hex(), "wallet", wallet)
		}
		return nil, err
	}
	return event, nil
}

// Release gives back a seat taken by Reserve.
func (ts *TicketService) Release(ctx context.Context, eventID primitive.ObjectID, wallet string) {
	if err := ts.eventsRepo.ReleaseTicket(ctx, eventID, wallet); err != nil {
		ts.logger.Error("Failed to release ticket claim", "event_id", eventID.Hex(), "wallet", wallet, "error", err)
	}
}

// Issue records ticket on the buyer and releases the seat if that fails.
func (ts *TicketService) Issue(ctx context.Context, event *models.Event, wallet string, ticket models.Ticket) error {
	if _, err := ts.usersRepo.AddTicket(ctx, wallet, ticket, event.TicketPrice); err != nil {
		ts.Release(context.WithoutCancel(ctx), event.ID, wallet)
		return fmt.Errorf("%w: %v", ErrStoreUpdate, err)
	}

	monitoring.RecordTicketSold()
	ts.logger.Info("Ticket issued",
		"event_id", event.ID.Hex(),
		"wallet", wallet,
		"token_id", ticket.TokenID,
		"sold", event.SoldTickets,
	)
	return nil
}

func (ts *TicketService) completeShiftPurchase(ctx context.Context, wallet string, ticket models.Ticket) {
	p, err := ts.purchasesRepo.GetPurchaseByShiftID(ctx, ticket.ShiftID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			ts.logger.Warn("Failed to look up purchase", "shift_id", ticket.ShiftID, "error", err)
		}
		return
	}
	if p.WalletAddress != wallet {
		ts.logger.Warn("Shift belongs to another wallet", "shift_id", ticket.ShiftID, "wallet", wallet)
		return
	}

	_, err = ts.purchasesRepo.TransitionPurchase(ctx, p.ID,
		[]models.PurchaseState{models.StateDepositObserved, models.StateSettled},
		models.PurchaseUpdate{
			State:           models.StateCompleted,
			TokenID:         ticket.TokenID,
			TransactionHash: ticket.TransactionHash,
		})
	if err != nil {
		ts.logger.Warn("Failed to complete purchase", "purchase_id", p.ID.Hex(), "error", err)
		return
	}
	monitoring.RecordPurchaseState(string(models.StateCompleted))
}
