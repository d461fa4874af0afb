package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"carpool/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRequestReceived  NotificationType = "REQUEST_RECEIVED"
	NotificationRequestAccepted  NotificationType = "REQUEST_ACCEPTED"
	NotificationRequestRejected  NotificationType = "REQUEST_REJECTED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationRiderCheckedIn   NotificationType = "RIDER_CHECKED_IN"
	NotificationRiderCheckedOut  NotificationType = "RIDER_CHECKED_OUT"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// Notifier delivers lifecycle notifications. Delivery is fire-and-forget:
// a failed delivery must never block or reverse a booking transition.
type Notifier interface {
	NotifyRequestReceived(ctx context.Context, trip *domain.Trip, req *domain.BookingRequest)
	NotifyRequestAccepted(ctx context.Context, req *domain.BookingRequest)
	NotifyRequestRejected(ctx context.Context, req *domain.BookingRequest)
	NotifyBookingCancelled(ctx context.Context, req *domain.BookingRequest)
	NotifyCheckedIn(ctx context.Context, trip *domain.Trip, req *domain.BookingRequest)
	NotifyCheckedOut(ctx context.Context, trip *domain.Trip, req *domain.BookingRequest)
}

// NotificationService is a log-backed Notifier. A real deployment would
// plug in a push client (FCM, APNS) behind the same interface.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyRequestReceived tells the driver a rider asked for seats.
func (s *NotificationService) NotifyRequestReceived(ctx context.Context, trip *domain.Trip, req *domain.BookingRequest) {
	s.send(ctx, Notification{
		Type:        NotificationRequestReceived,
		RecipientID: trip.DriverID,
		Title:       "New Seat Request",
		Message:     fmt.Sprintf("%s requested %d seat(s) on your trip to %s", req.RiderName, req.RequestedSeats, trip.DestinationAddress),
		Data: map[string]interface{}{
			"trip_id":         trip.ID,
			"request_id":      req.ID,
			"requested_seats": req.RequestedSeats,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRequestAccepted tells the rider their seats are confirmed.
func (s *NotificationService) NotifyRequestAccepted(ctx context.Context, req *domain.BookingRequest) {
	s.send(ctx, Notification{
		Type:        NotificationRequestAccepted,
		RecipientID: req.RiderID,
		Title:       "Request Accepted",
		Message:     fmt.Sprintf("Your request for %d seat(s) was accepted", req.RequestedSeats),
		Data: map[string]interface{}{
			"trip_id":    req.TripID,
			"request_id": req.ID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRequestRejected tells the rider the driver declined.
func (s *NotificationService) NotifyRequestRejected(ctx context.Context, req *domain.BookingRequest) {
	s.send(ctx, Notification{
		Type:        NotificationRequestRejected,
		RecipientID: req.RiderID,
		Title:       "Request Declined",
		Message:     "The driver declined your seat request",
		Data: map[string]interface{}{
			"trip_id":    req.TripID,
			"request_id": req.ID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyBookingCancelled tells the rider the driver cancelled their booking.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, req *domain.BookingRequest) {
	s.send(ctx, Notification{
		Type:        NotificationBookingCancelled,
		RecipientID: req.RiderID,
		Title:       "Booking Cancelled",
		Message:     "The driver cancelled your booking",
		Data: map[string]interface{}{
			"trip_id":    req.TripID,
			"request_id": req.ID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyCheckedIn tells the driver the rider has boarded.
func (s *NotificationService) NotifyCheckedIn(ctx context.Context, trip *domain.Trip, req *domain.BookingRequest) {
	s.send(ctx, Notification{
		Type:        NotificationRiderCheckedIn,
		RecipientID: trip.DriverID,
		Title:       "Rider Checked In",
		Message:     fmt.Sprintf("%s checked in", req.RiderName),
		Data: map[string]interface{}{
			"trip_id":    trip.ID,
			"request_id": req.ID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyCheckedOut tells the driver the rider has left the trip.
func (s *NotificationService) NotifyCheckedOut(ctx context.Context, trip *domain.Trip, req *domain.BookingRequest) {
	s.send(ctx, Notification{
		Type:        NotificationRiderCheckedOut,
		RecipientID: trip.DriverID,
		Title:       "Rider Checked Out",
		Message:     fmt.Sprintf("%s checked out", req.RiderName),
		Data: map[string]interface{}{
			"trip_id":    trip.ID,
			"request_id": req.ID,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers a notification. Failures are logged and swallowed.
func (s *NotificationService) send(ctx context.Context, notification Notification) {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)
}

// Ensure NotificationService implements Notifier.
var _ Notifier = (*NotificationService)(nil)
