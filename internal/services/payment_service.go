package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/eventnest/internal/chain"
	"github.com/joshua-takyi/eventnest/internal/external"
	"github.com/joshua-takyi/eventnest/internal/helpers"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/monitoring"
	"github.com/shopspring/decimal"
)

const (
	pollBatchSize       = 100
	cancelTimeout       = 10 * time.Second
	mintTimeout         = 3 * time.Minute
	mintReceiptDeadline = 24 * time.Hour
)

// MintingLease is how long a purchase may sit in minting before the poller
// treats the claim as abandoned.
const MintingLease = 5 * time.Minute

type PaymentConfig struct {
	SettleCoin    string
	SettleNetwork string
	// Treasury receives settled funds; empty means the buyer's own wallet.
	Treasury string
}

type PaymentService struct {
	purchasesRepo models.PurchaseRepo
	eventsRepo    models.EventRepo
	tickets       *TicketService
	exchange      Exchange
	pinner        Pinner
	minter        Minter
	cfg           PaymentConfig
	logger        *slog.Logger
	now           func() time.Time
}

// NewPaymentService builds the orchestrator; minter may be nil.
func NewPaymentService(
	purchasesRepo models.PurchaseRepo,
	eventsRepo models.EventRepo,
	tickets *TicketService,
	exchange Exchange,
	pinner Pinner,
	minter Minter,
	cfg PaymentConfig,
	logger *slog.Logger,
) *PaymentService {
	if cfg.SettleCoin == "" {
		cfg.SettleCoin = "MATIC"
	}
	if cfg.SettleNetwork == "" {
		cfg.SettleNetwork = "polygon"
	}
	return &PaymentService{
		purchasesRepo: purchasesRepo,
		eventsRepo:    eventsRepo,
		tickets:       tickets,
		exchange:      exchange,
		pinner:        pinner,
		minter:        minter,
		cfg:           cfg,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type StartPurchaseInput struct {
	EventID        string `json:"eventId"`
	DepositCoin    string `json:"depositCoin"`
	DepositNetwork string `json:"depositNetwork"`
}

type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// TicketMetadata is the ERC-721 metadata document pinned for each ticket.
type TicketMetadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image,omitempty"`
	Attributes  []MetadataAttribute `json:"attributes"`
}

// MapShiftStatus translates an exchange status into a purchase state.
func MapShiftStatus(status string) (models.PurchaseState, bool) {
	switch status {
	case external.ShiftWaiting:
		return models.StateDepositAllocated, true
	case external.ShiftPending, external.ShiftProcessing, external.ShiftReview, external.ShiftSettling:
		return models.StateDepositObserved, true
	case external.ShiftSettled:
		return models.StateSettled, true
	case external.ShiftExpired:
		return models.StateExpired, true
	case external.ShiftRefund, external.ShiftRefunding, external.ShiftRefunded:
		return models.StateFailed, true
	}
	return "", false
}

func (ps *PaymentService) canMint() bool {
	return ps.minter != nil && ps.minter.CanMint()
}

// Start quotes the ticket price, opens a fixed shift and records the purchase.
func (ps *PaymentService) Start(ctx context.Context, wallet string, in StartPurchaseInput, userIP string) (*models.Purchase, error) {
	wallet = helpers.NormalizeAddress(wallet)
	if wallet == "" {
		return nil, ErrNoWallet
	}
	if verr := missingFields(
		[2]string{"eventId", in.EventID},
		[2]string{"depositCoin", in.DepositCoin},
	); verr != nil {
		return nil, verr
	}

	oid, err := ParseObjectID(in.EventID)
	if err != nil {
		return nil, err
	}
	event, err := ps.eventsRepo.GetEventByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if event.IsSoldOut() {
		return nil, models.ErrSoldOut
	}
	if event.TicketPrice <= 0 {
		return nil, &ValidationError{Message: "free events need no payment"}
	}

	amount := decimal.NewFromFloat(event.TicketPrice)
	quote, err := ps.exchange.GetQuote(ctx, external.QuoteRequest{
		DepositCoin:    strings.ToUpper(in.DepositCoin),
		DepositNetwork: in.DepositNetwork,
		SettleCoin:     ps.cfg.SettleCoin,
		SettleNetwork:  ps.cfg.SettleNetwork,
		SettleAmount:   &amount,
	}, userIP)
	monitoring.RecordGatewayCall("sideshift", "quote", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteFailed, err)
	}
	if !quote.ExpiresAt.IsZero() && !quote.ExpiresAt.After(ps.now()) {
		return nil, ErrQuoteExpired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	settleAddress := helpers.NormalizeAddress(ps.cfg.Treasury)
	if settleAddress == "" {
		settleAddress = wallet
	}
	shift, err := ps.exchange.CreateFixedShift(ctx, quote.ID, settleAddress, wallet, userIP)
	monitoring.RecordGatewayCall("sideshift", "shift", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShiftFailed, err)
	}

	purchase, err := ps.purchasesRepo.CreatePurchase(ctx, &models.Purchase{
		EventID:        event.ID,
		WalletAddress:  wallet,
		DepositCoin:    quote.DepositCoin,
		DepositNetwork: quote.DepositNetwork,
		SettleCoin:     quote.SettleCoin,
		SettleNetwork:  quote.SettleNetwork,
		SettleAmount:   quote.SettleAmount.String(),
		DepositAmount:  quote.DepositAmount.String(),
		Rate:           quote.Rate.String(),
		QuoteID:        quote.ID,
		QuoteExpiresAt: quote.ExpiresAt,
		ShiftID:        shift.ID,
		DepositAddress: shift.DepositAddress,
		DepositMemo:    shift.DepositMemo,
		SettleAddress:  settleAddress,
		State:          models.StateDepositAllocated,
		ShiftStatus:    shift.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("error saving purchase: %w", err)
	}

	monitoring.RecordPurchaseState(string(purchase.State))
	ps.logger.Info("Purchase started",
		"purchase_id", purchase.ID.Hex(),
		"event_id", event.ID.Hex(),
		"shift_id", shift.ID,
		"wallet", wallet,
	)
	return purchase, nil
}

// Get returns the caller's purchase after a best-effort status refresh.
func (ps *PaymentService) Get(ctx context.Context, id, wallet string) (*models.Purchase, error) {
	p, err := ps.owned(ctx, id, wallet)
	if err != nil {
		return nil, err
	}
	refreshed, err := ps.refresh(ctx, p)
	if err != nil {
		ps.logger.Warn("Purchase refresh failed", "purchase_id", id, "error", err)
		return p, nil
	}
	return refreshed, nil
}

// Refresh polls the exchange for one purchase and advances its state.
func (ps *PaymentService) Refresh(ctx context.Context, id string) (*models.Purchase, error) {
	oid, err := ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	p, err := ps.purchasesRepo.GetPurchaseByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	return ps.refresh(ctx, p)
}

func (ps *PaymentService) owned(ctx context.Context, id, wallet string) (*models.Purchase, error) {
	wallet = helpers.NormalizeAddress(wallet)
	if wallet == "" {
		return nil, ErrNoWallet
	}
	oid, err := ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	p, err := ps.purchasesRepo.GetPurchaseByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if p.WalletAddress != wallet {
		return nil, ErrNotOwner
	}
	return p, nil
}

func (ps *PaymentService) refresh(ctx context.Context, p *models.Purchase) (*models.Purchase, error) {
	if p.State.Terminal() || p.State == models.StateMinting || p.ShiftID == "" {
		return p, nil
	}

	shift, err := ps.exchange.GetShift(ctx, p.ShiftID)
	monitoring.RecordGatewayCall("sideshift", "status", err)
	if err != nil {
		return p, fmt.Errorf("error fetching shift %s: %w", p.ShiftID, err)
	}

	target, ok := MapShiftStatus(shift.Status)
	if !ok {
		ps.logger.Warn("Unknown shift status", "shift_id", p.ShiftID, "status", shift.Status)
		return p, nil
	}

	if target != p.State || shift.Status != p.ShiftStatus {
		update := models.PurchaseUpdate{State: target, ShiftStatus: shift.Status}
		if target == models.StateFailed {
			update.FailureReason = "exchange refunded the deposit"
		}
		next, err := ps.purchasesRepo.TransitionPurchase(ctx, p.ID, []models.PurchaseState{p.State}, update)
		if errors.Is(err, models.ErrConflict) {
			return ps.purchasesRepo.GetPurchaseByID(ctx, p.ID)
		}
		if err != nil {
			return p, fmt.Errorf("error updating purchase: %w", err)
		}
		if next.State != p.State {
			monitoring.RecordPurchaseState(string(next.State))
			ps.logger.Info("Purchase state changed",
				"purchase_id", p.ID.Hex(),
				"from", p.State,
				"to", next.State,
				"shift_status", shift.Status,
			)
		}
		p = next
	}

	if p.State == models.StateSettled {
		return ps.Complete(ctx, p)
	}
	return p, nil
}

// Complete pins metadata, mints and records the ticket for a settled purchase.
// Without a minter the purchase stays settled until the client confirms it.
func (ps *PaymentService) Complete(ctx context.Context, p *models.Purchase) (*models.Purchase, error) {
	if p.State != models.StateSettled || !ps.canMint() {
		return p, nil
	}

	// the minting state is the idempotency claim
	claimed, err := ps.purchasesRepo.TransitionPurchase(ctx, p.ID,
		[]models.PurchaseState{models.StateSettled},
		models.PurchaseUpdate{State: models.StateMinting})
	if errors.Is(err, models.ErrConflict) {
		return ps.purchasesRepo.GetPurchaseByID(ctx, p.ID)
	}
	if err != nil {
		return p, fmt.Errorf("error claiming purchase: %w", err)
	}
	p = claimed

	// once claimed, the request or poll batch ending must not cut the mint short
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mintTimeout)
	defer cancel()
	zero := 0

	event, err := ps.tickets.Reserve(ctx, p.EventID, p.WalletAddress)
	if err != nil {
		return ps.fail(ctx, p, models.PurchaseUpdate{FailureReason: err.Error()}, err)
	}
	seat := event.SoldTickets
	held, err := ps.purchasesRepo.TransitionPurchase(ctx, p.ID,
		[]models.PurchaseState{models.StateMinting},
		models.PurchaseUpdate{State: models.StateMinting, TicketNumber: &seat})
	if err != nil {
		ps.logger.Warn("Failed to record held seat", "purchase_id", p.ID.Hex(), "error", err)
	} else {
		p = held
	}

	meta := ticketMetadata(event, ps.pinner)
	pin, err := ps.pinner.PinJSON(ctx, fmt.Sprintf("ticket-%s-%d.json", event.ID.Hex(), seat), meta)
	monitoring.RecordGatewayCall("pinata", "metadata", err)
	if err != nil {
		ps.tickets.Release(ctx, event.ID, p.WalletAddress)
		// back to settled so the next poll retries
		if _, terr := ps.purchasesRepo.TransitionPurchase(ctx, p.ID,
			[]models.PurchaseState{models.StateMinting},
			models.PurchaseUpdate{State: models.StateSettled, TicketNumber: &zero}); terr != nil {
			ps.logger.Error("Failed to reset purchase", "purchase_id", p.ID.Hex(), "error", terr)
		}
		return p, fmt.Errorf("%w: %v", ErrMetadataUpload, err)
	}

	res, err := ps.minter.MintTicket(ctx, p.WalletAddress, chain.EventNumber(event.ID), "ipfs://"+pin.IpfsHash, chain.ToWei(decimal.NewFromFloat(event.TicketPrice)))
	monitoring.RecordGatewayCall("chain", "mint", err)
	if err != nil {
		if errors.Is(err, chain.ErrNotMined) && res != nil && res.TxHash != "" {
			return ps.awaitReceipt(ctx, p, res.TxHash, pin.IpfsHash, err)
		}
		ps.tickets.Release(ctx, event.ID, p.WalletAddress)
		update := models.PurchaseUpdate{MetadataCID: pin.IpfsHash, FailureReason: err.Error(), TicketNumber: &zero}
		if res != nil {
			update.TransactionHash = res.TxHash
		}
		return ps.fail(ctx, p, update, fmt.Errorf("%w: %v", ErrMintReverted, err))
	}

	return ps.issueMinted(ctx, p, event, seat, res.TxHash, res.TokenID, pin.IpfsHash)
}

// awaitReceipt keeps a broadcast mint in minting, with its seat held, until
// the poller finds the receipt.
func (ps *PaymentService) awaitReceipt(ctx context.Context, p *models.Purchase, txHash, cid string, cause error) (*models.Purchase, error) {
	pending, err := ps.purchasesRepo.TransitionPurchase(ctx, p.ID,
		[]models.PurchaseState{models.StateMinting},
		models.PurchaseUpdate{State: models.StateMinting, TransactionHash: txHash, MetadataCID: cid})
	if err != nil {
		ps.logger.Error("Failed to record mint transaction", "purchase_id", p.ID.Hex(), "tx_hash", txHash, "error", err)
		return p, fmt.Errorf("%w: %v", ErrStoreUpdate, err)
	}
	ps.logger.Warn("Mint broadcast without receipt",
		"purchase_id", p.ID.Hex(),
		"tx_hash", txHash,
		"error", cause,
	)
	return pending, nil
}

// issueMinted records the ticket for a mined token and completes the purchase.
func (ps *PaymentService) issueMinted(ctx context.Context, p *models.Purchase, event *models.Event, seat int, txHash, tokenID, cid string) (*models.Purchase, error) {
	if tokenID == "" {
		tokenID = SynthesizeTokenID(event.ID, seat)
	}
	ticket := models.Ticket{
		EventID:         event.ID,
		TokenID:         tokenID,
		PurchaseDate:    ps.now(),
		TransactionHash: txHash,
		ShiftID:         p.ShiftID,
		Status:          models.TicketStatusValid,
	}
	if err := ps.tickets.Issue(ctx, event, p.WalletAddress, ticket); err != nil {
		zero := 0
		return ps.fail(ctx, p, models.PurchaseUpdate{
			TokenID:         tokenID,
			TransactionHash: txHash,
			MetadataCID:     cid,
			FailureReason:   err.Error(),
			TicketNumber:    &zero,
		}, err)
	}

	done, err := ps.purchasesRepo.TransitionPurchase(ctx, p.ID,
		[]models.PurchaseState{models.StateMinting},
		models.PurchaseUpdate{
			State:           models.StateCompleted,
			TokenID:         tokenID,
			TransactionHash: txHash,
			MetadataCID:     cid,
		})
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrStoreUpdate, err)
	}

	monitoring.RecordPurchaseState(string(models.StateCompleted))
	ps.logger.Info("Purchase completed", "purchase_id", p.ID.Hex(), "token_id", tokenID, "tx_hash", txHash)
	return done, nil
}

// reconcileMinting resolves a purchase left in minting past its lease. With a
// tx hash the receipt decides; without one the claim is undone so the next
// poll mints again.
func (ps *PaymentService) reconcileMinting(ctx context.Context, p *models.Purchase) (*models.Purchase, error) {
	age := ps.now().Sub(p.UpdatedAt)
	if age < MintingLease {
		return p, nil
	}
	zero := 0

	if p.TransactionHash == "" {
		reset, err := ps.purchasesRepo.TransitionPurchase(ctx, p.ID,
			[]models.PurchaseState{models.StateMinting},
			models.PurchaseUpdate{State: models.StateSettled, TicketNumber: &zero})
		if errors.Is(err, models.ErrConflict) {
			return ps.purchasesRepo.GetPurchaseByID(ctx, p.ID)
		}
		if err != nil {
			return p, fmt.Errorf("error resetting purchase: %w", err)
		}
		if p.TicketNumber > 0 {
			ps.tickets.Release(ctx, p.EventID, p.WalletAddress)
		}
		ps.logger.Warn("Stale mint claim reset", "purchase_id", p.ID.Hex(), "held_for", age.String())
		return reset, nil
	}

	if ps.tickets.resolver == nil {
		ps.logger.Warn("Cannot check mint receipt without a chain client", "purchase_id", p.ID.Hex(), "tx_hash", p.TransactionHash)
		return p, nil
	}

	tokenID, err := ps.tickets.resolver.TokenIDFromTx(ctx, p.TransactionHash)
	switch {
	case err == nil, errors.Is(err, chain.ErrNoTransferLog):
		event, gerr := ps.eventsRepo.GetEventByID(ctx, p.EventID)
		if gerr != nil {
			return p, gerr
		}
		return ps.issueMinted(ctx, p, event, p.TicketNumber, p.TransactionHash, tokenID, p.MetadataCID)
	case errors.Is(err, chain.ErrReverted):
		failed, ferr := ps.fail(ctx, p, models.PurchaseUpdate{FailureReason: err.Error(), TicketNumber: &zero},
			fmt.Errorf("%w: %v", ErrMintReverted, err))
		if failed.State == models.StateFailed && p.TicketNumber > 0 {
			ps.tickets.Release(ctx, p.EventID, p.WalletAddress)
		}
		return failed, ferr
	case age > mintReceiptDeadline:
		// the seat stays held; the tx hash is kept for manual reconciliation
		return ps.fail(ctx, p, models.PurchaseUpdate{FailureReason: "mint receipt not found: " + err.Error()},
			fmt.Errorf("%w: %v", ErrMintReverted, err))
	}
	ps.logger.Warn("Mint receipt not found yet", "purchase_id", p.ID.Hex(), "tx_hash", p.TransactionHash, "error", err)
	return p, nil
}

func (ps *PaymentService) fail(ctx context.Context, p *models.Purchase, update models.PurchaseUpdate, cause error) (*models.Purchase, error) {
	update.State = models.StateFailed
	failed, err := ps.purchasesRepo.TransitionPurchase(context.WithoutCancel(ctx), p.ID,
		[]models.PurchaseState{models.StateMinting}, update)
	if err != nil {
		ps.logger.Error("Failed to mark purchase failed", "purchase_id", p.ID.Hex(), "error", err)
		return p, cause
	}
	monitoring.RecordPurchaseState(string(models.StateFailed))
	ps.logger.Error("Purchase failed",
		"purchase_id", p.ID.Hex(),
		"tx_hash", failed.TransactionHash,
		"error", cause,
	)
	return failed, cause
}

// Abandon stops a purchase that has not received funds and cancels its shift.
func (ps *PaymentService) Abandon(ctx context.Context, id, wallet string) (*models.Purchase, error) {
	p, err := ps.owned(ctx, id, wallet)
	if err != nil {
		return nil, err
	}
	if !p.State.Abandonable() {
		return nil, ErrNotAbandonable
	}

	abandoned, err := ps.purchasesRepo.TransitionPurchase(ctx, p.ID,
		[]models.PurchaseState{models.StateQuoted, models.StateDepositAllocated},
		models.PurchaseUpdate{State: models.StateAbandoned})
	if errors.Is(err, models.ErrConflict) {
		return nil, ErrNotAbandonable
	}
	if err != nil {
		return nil, fmt.Errorf("error abandoning purchase: %w", err)
	}
	monitoring.RecordPurchaseState(string(models.StateAbandoned))

	if p.ShiftID != "" {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
		defer cancel()
		err := ps.exchange.CancelOrder(cctx, p.ShiftID)
		monitoring.RecordGatewayCall("sideshift", "cancel", err)
		if err != nil {
			ps.logger.Warn("Cancel order failed", "shift_id", p.ShiftID, "error", err)
		}
	}

	ps.logger.Info("Purchase abandoned", "purchase_id", p.ID.Hex(), "wallet", p.WalletAddress)
	return abandoned, nil
}

// PollPending refreshes every unfinished purchase, expires stale quotes and
// reconciles stale mint claims. It returns how many purchases were examined.
func (ps *PaymentService) PollPending(ctx context.Context) (int, error) {
	states := append([]models.PurchaseState{}, models.PendingStates...)
	if !ps.canMint() {
		// settled purchases wait for the client to confirm
		states = []models.PurchaseState{models.StateQuoted, models.StateDepositAllocated, models.StateDepositObserved}
	}
	states = append(states, models.StateMinting)

	pending, err := ps.purchasesRepo.ListPurchasesByState(ctx, states, pollBatchSize)
	if err != nil {
		return 0, fmt.Errorf("error listing pending purchases: %w", err)
	}
	monitoring.SetPendingPurchases(len(pending))

	for i, p := range pending {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		if p.State == models.StateMinting {
			if _, err := ps.reconcileMinting(ctx, p); err != nil {
				ps.logger.Warn("Mint reconcile failed", "purchase_id", p.ID.Hex(), "error", err)
			}
			continue
		}

		refreshed, err := ps.refresh(ctx, p)
		if err != nil {
			ps.logger.Warn("Purchase poll failed", "purchase_id", p.ID.Hex(), "error", err)
		}
		if refreshed == nil {
			refreshed = p
		}

		if refreshed.State.Abandonable() && !refreshed.QuoteExpiresAt.IsZero() && ps.now().After(refreshed.QuoteExpiresAt) {
			_, err := ps.purchasesRepo.TransitionPurchase(ctx, refreshed.ID,
				[]models.PurchaseState{refreshed.State},
				models.PurchaseUpdate{State: models.StateExpired, FailureReason: "quote expired before deposit"})
			if err != nil && !errors.Is(err, models.ErrConflict) {
				ps.logger.Warn("Failed to expire purchase", "purchase_id", p.ID.Hex(), "error", err)
				continue
			}
			if err == nil {
				monitoring.RecordPurchaseState(string(models.StateExpired))
			}
		}
	}
	return len(pending), nil
}

func ticketMetadata(event *models.Event, pinner Pinner) TicketMetadata {
	image := event.ImageURL
	if event.ImageCID != "" {
		image = pinner.GatewayURL(event.ImageCID)
	}
	return TicketMetadata{
		Name:        fmt.Sprintf("%s - Ticket #%d", event.Title, event.SoldTickets),
		Description: event.Description,
		Image:       image,
		Attributes: []MetadataAttribute{
			{TraitType: "Event", Value: event.Title},
			{TraitType: "Date", Value: event.Date.Format(time.RFC3339)},
			{TraitType: "Location", Value: event.Location},
			{TraitType: "Category", Value: event.Category},
			{TraitType: "Ticket Number", Value: event.SoldTickets},
		},
	}
}
