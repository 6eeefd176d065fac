package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"fleet/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationSaleConfirmed NotificationType = "SALE_CONFIRMED"
	NotificationRefundIssued  NotificationType = "REFUND_ISSUED"
	NotificationHoldExpired   NotificationType = "HOLD_EXPIRED"
)

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery. Delivery is
// fire-and-forget: failures never roll back the triggering operation.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - Email client (SendGrid)
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifySaleConfirmed notifies the holder that their seat purchase went through.
func (s *NotificationService) NotifySaleConfirmed(ctx context.Context, ticket *domain.Ticket, trip *domain.Trip) error {
	notification := Notification{
		Type:        NotificationSaleConfirmed,
		RecipientID: ticket.HolderID,
		Title:       "Purchase Confirmed",
		Message:     fmt.Sprintf("Seat %d confirmed for $%.2f", ticket.SeatNumber, ticket.Price),
		Data: map[string]interface{}{
			"ticket_id":    ticket.ID,
			"trip_id":      trip.ID,
			"seat_number":  ticket.SeatNumber,
			"amount":       ticket.Price,
			"departure_at": trip.DepartureAt,
			"origin":       trip.OriginID,
			"destination":  trip.DestinationID,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRefundIssued notifies the holder that their ticket was refunded.
func (s *NotificationService) NotifyRefundIssued(ctx context.Context, ticket *domain.Ticket, trip *domain.Trip) error {
	notification := Notification{
		Type:        NotificationRefundIssued,
		RecipientID: ticket.HolderID,
		Title:       "Refund Issued",
		Message:     fmt.Sprintf("Refund of $%.2f issued for seat %d", ticket.Price, ticket.SeatNumber),
		Data: map[string]interface{}{
			"ticket_id":   ticket.ID,
			"trip_id":     trip.ID,
			"seat_number": ticket.SeatNumber,
			"amount":      ticket.Price,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
