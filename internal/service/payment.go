package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// PSP is the interface for a Payment Service Provider. Capture and refund
// return a provider-side reference echoed into the ticket.
type PSP interface {
	Charge(ctx context.Context, amount float64) (string, error)
	Refund(ctx context.Context, reference string, amount float64) (string, error)
}

// MockPSP is a mock implementation of PSP for testing.
type MockPSP struct{}

// NewMockPSP creates a new mock PSP.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

// Charge simulates a payment capture. Always succeeds.
func (p *MockPSP) Charge(ctx context.Context, amount float64) (string, error) {
	return fmt.Sprintf("ch_%s", uuid.New().String()), nil
}

// Refund simulates a refund against a prior charge. Always succeeds.
func (p *MockPSP) Refund(ctx context.Context, reference string, amount float64) (string, error) {
	return fmt.Sprintf("re_%s", uuid.New().String()), nil
}

// PaymentService wraps the payment provider. The core never defines the
// wire protocol; it only captures and refunds amounts.
type PaymentService struct {
	psp PSP
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(psp PSP) *PaymentService {
	return &PaymentService{psp: psp}
}

// Capture charges the given amount and returns the provider reference.
func (s *PaymentService) Capture(ctx context.Context, amount float64) (string, error) {
	reference, err := s.psp.Charge(ctx, amount)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	return reference, nil
}

// Refund refunds a prior charge and returns the provider reference.
func (s *PaymentService) Refund(ctx context.Context, reference string, amount float64) (string, error) {
	refundRef, err := s.psp.Refund(ctx, reference, amount)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	return refundRef, nil
}
