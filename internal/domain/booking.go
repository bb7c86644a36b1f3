package domain

import (
	"time"

	"servio/internal/geo"
)

// BookingStatus represents the current state of a booking.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusDisputed   BookingStatus = "disputed"
)

// PaymentStatus tracks the payment side of a booking. Payment processing
// itself happens outside this core.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusDisputed PaymentStatus = "disputed"
)

// Address is the service location for a booking.
type Address struct {
	Street   string
	City     string
	Region   string
	Position geo.Position
}

// Booking is the central entity: a customer's request for a service,
// optionally assigned to a provider. Never hard-deleted; cancellation is a
// terminal state.
type Booking struct {
	ID                   string
	CustomerID           string
	ProviderID           string // empty only while pending and unassigned
	ServiceID            string
	Status               BookingStatus
	ScheduledAt          time.Time
	ActualStart          time.Time
	ActualEnd            time.Time
	ActualDurationMin    int
	Address              Address
	SpecialInstructions  string
	EstimatedDurationMin int
	TotalAmount          Money
	PlatformCommission   Money
	ProviderEarnings     Money
	PaymentStatus        PaymentStatus
	Version              int64 // optimistic concurrency token
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// StatusHistoryEntry is one append-only audit record, written atomically with
// every booking status change including creation.
type StatusHistoryEntry struct {
	ID             string
	BookingID      string
	PreviousStatus BookingStatus // empty for the creation entry
	NewStatus      BookingStatus
	ChangedBy      string
	Reason         string
	At             time.Time
}

// transitions declares every legal status edge per role. The legality of an
// edge is checked here and nowhere else.
var transitions = map[Role]map[BookingStatus][]BookingStatus{
	RoleCustomer: {
		BookingStatusPending:   {BookingStatusCancelled},
		BookingStatusConfirmed: {BookingStatusCancelled},
	},
	RoleProvider: {
		BookingStatusPending:    {BookingStatusConfirmed},
		BookingStatusConfirmed:  {BookingStatusInProgress, BookingStatusCancelled},
		BookingStatusInProgress: {BookingStatusCompleted},
	},
	RoleAdmin: {
		BookingStatusPending:    {BookingStatusConfirmed, BookingStatusCancelled},
		BookingStatusConfirmed:  {BookingStatusInProgress, BookingStatusCancelled},
		BookingStatusInProgress: {BookingStatusCompleted, BookingStatusCancelled},
		BookingStatusCompleted:  {BookingStatusDisputed},
	},
}

// CanTransition reports whether the role may move a booking from one status
// to another.
func CanTransition(role Role, from, to BookingStatus) bool {
	for _, allowed := range transitions[role][from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TerminalStatus reports whether no role can leave the status. disputed and
// cancelled have no outgoing edges; completed can still move to disputed.
func TerminalStatus(s BookingStatus) bool {
	for _, byStatus := range transitions {
		if len(byStatus[s]) > 0 {
			return false
		}
	}
	return true
}

// ValidBookingStatus reports whether the string is a known status.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled, BookingStatusDisputed:
		return true
	}
	return false
}

// OwnedBy reports whether the identity may act on this booking: customers on
// their own bookings, providers on bookings assigned to them, admins on all.
func (b *Booking) OwnedBy(id Identity) bool {
	switch id.Role {
	case RoleCustomer:
		return b.CustomerID == id.UserID
	case RoleProvider:
		return b.ProviderID != "" && b.ProviderID == id.UserID
	case RoleAdmin:
		return true
	}
	return false
}
