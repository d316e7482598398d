package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoWallet       = errors.New("no wallet")
	ErrNotOwner       = errors.New("purchase belongs to another wallet")
	ErrQuoteFailed    = errors.New("quote failed")
	ErrQuoteExpired   = errors.New("quote expired")
	ErrShiftFailed    = errors.New("shift creation failed")
	ErrExchange       = errors.New("exchange request failed")
	ErrMintReverted   = errors.New("mint reverted")
	ErrMetadataUpload = errors.New("metadata upload failed")
	ErrStoreUpdate    = errors.New("store update failed")
	ErrNotAbandonable = errors.New("purchase can no longer be abandoned")
)

// ValidationError is returned for client input the service refuses.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
	}
	return e.Message
}

func missingFields(fields ...[2]string) *ValidationError {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: missing, Message: "Missing required fields"}
}
