package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"servio/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingCreated   NotificationType = "BOOKING_CREATED"
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationServiceStarted   NotificationType = "SERVICE_STARTED"
	NotificationServiceCompleted NotificationType = "SERVICE_COMPLETED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationBookingDisputed  NotificationType = "BOOKING_DISPUTED"
	NotificationReviewReceived   NotificationType = "REVIEW_RECEIVED"
)

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string // customer or provider ID
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
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

// NotifyBookingCreated notifies the provider (when assigned) about a new
// booking.
func (s *NotificationService) NotifyBookingCreated(ctx context.Context, booking *domain.Booking) error {
	if booking.ProviderID == "" {
		return nil
	}
	s.send(ctx, Notification{
		Type:        NotificationBookingCreated,
		RecipientID: booking.ProviderID,
		Title:       "New Booking",
		Message:     fmt.Sprintf("New booking scheduled for %s in %s", booking.ScheduledAt.Format(time.RFC3339), booking.Address.City),
		Data: map[string]interface{}{
			"booking_id":   booking.ID,
			"service_id":   booking.ServiceID,
			"scheduled_at": booking.ScheduledAt,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifyStatusChanged notifies the counterparty of a status change. The actor
// who made the change is not re-notified.
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, booking *domain.Booking, changedBy string) error {
	var notifType NotificationType
	var title, message string

	switch booking.Status {
	case domain.BookingStatusConfirmed:
		notifType = NotificationBookingConfirmed
		title = "Booking Confirmed"
		message = fmt.Sprintf("Your booking for %s has been confirmed", booking.ScheduledAt.Format(time.RFC3339))
	case domain.BookingStatusInProgress:
		notifType = NotificationServiceStarted
		title = "Service Started"
		message = "Your service provider has started the job"
	case domain.BookingStatusCompleted:
		notifType = NotificationServiceCompleted
		title = "Service Completed"
		message = "Your booking is complete. You can now leave a review."
	case domain.BookingStatusCancelled:
		notifType = NotificationBookingCancelled
		title = "Booking Cancelled"
		message = "The booking has been cancelled"
	case domain.BookingStatusDisputed:
		notifType = NotificationBookingDisputed
		title = "Booking Disputed"
		message = "The booking has been marked as disputed"
	default:
		return nil
	}

	for _, recipient := range []string{booking.CustomerID, booking.ProviderID} {
		if recipient == "" || recipient == changedBy {
			continue
		}
		s.send(ctx, Notification{
			Type:        notifType,
			RecipientID: recipient,
			Title:       title,
			Message:     message,
			Data: map[string]interface{}{
				"booking_id": booking.ID,
				"status":     string(booking.Status),
			},
			CreatedAt: time.Now(),
		})
	}
	return nil
}

// NotifyReviewReceived notifies the provider about a new review.
func (s *NotificationService) NotifyReviewReceived(ctx context.Context, review *domain.Review) error {
	s.send(ctx, Notification{
		Type:        NotificationReviewReceived,
		RecipientID: review.ProviderID,
		Title:       "New Review",
		Message:     fmt.Sprintf("You received a %d-star review", review.Rating),
		Data: map[string]interface{}{
			"booking_id": review.BookingID,
			"rating":     review.Rating,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// send delivers a notification. Currently logs; a production system would
// dispatch to push/SMS/email providers.
func (s *NotificationService) send(ctx context.Context, n Notification) {
	log.Printf("[NOTIFICATION] type=%s recipient=%s title=%q message=%q",
		n.Type, n.RecipientID, n.Title, n.Message)
}
