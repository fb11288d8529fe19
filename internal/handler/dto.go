package handler

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/samuelmuhia/booking-website/internal/domain"
	"github.com/samuelmuhia/booking-website/internal/service"
)

// Amounts on the wire are integer minor units (cents).

type tripRequest struct {
	OperatorName  string             `json:"operator_name"`
	Category      string             `json:"category"`
	Origin        string             `json:"origin"`
	Destination   string             `json:"destination"`
	ServiceDate   openapi_types.Date `json:"service_date"`
	DepartureTime string             `json:"departure_time"`
	ArrivalTime   string             `json:"arrival_time"`
	Capacity      int                `json:"capacity"`
	BaseFare      int64              `json:"base_fare"`
}

type tripResponse struct {
	ID             uuid.UUID          `json:"id"`
	OperatorName   string             `json:"operator_name"`
	Category       string             `json:"category"`
	Origin         string             `json:"origin"`
	Destination    string             `json:"destination"`
	ServiceDate    openapi_types.Date `json:"service_date"`
	DepartureTime  string             `json:"departure_time"`
	ArrivalTime    string             `json:"arrival_time"`
	Capacity       int                `json:"capacity"`
	BaseFare       int64              `json:"base_fare"`
	AvailableSeats *int               `json:"available_seats,omitempty"`
}

type seatResponse struct {
	Number int    `json:"number"`
	Tier   string `json:"tier"`
	State  string `json:"state"`
}

type openReservationRequest struct {
	TripID uuid.UUID `json:"trip_id"`
	Seats  []int     `json:"seats"`
}

type passenger struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	SeatNumber int    `json:"seat_number,omitempty"`
}

type attachPassengersRequest struct {
	Passengers []passenger `json:"passengers"`
}

type confirmRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type sessionResponse struct {
	ID         uuid.UUID   `json:"id"`
	TripID     uuid.UUID   `json:"trip_id"`
	Seats      []int       `json:"seats"`
	Passengers []passenger `json:"passengers,omitempty"`
	State      string      `json:"state"`
	BookingID  *uuid.UUID  `json:"booking_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

type bookedTrip struct {
	OperatorName  string             `json:"operator_name"`
	Category      string             `json:"category"`
	Origin        string             `json:"origin"`
	Destination   string             `json:"destination"`
	ServiceDate   openapi_types.Date `json:"service_date"`
	DepartureTime string             `json:"departure_time"`
	ArrivalTime   string             `json:"arrival_time"`
}

type bookingResponse struct {
	ID              uuid.UUID   `json:"id"`
	TripID          uuid.UUID   `json:"trip_id"`
	Trip            bookedTrip  `json:"trip"`
	Seats           []int       `json:"seats"`
	Passengers      []passenger `json:"passengers"`
	UnitFare        int64       `json:"unit_fare"`
	TotalPrice      int64       `json:"total_price"`
	PaymentMethod   string      `json:"payment_method"`
	Status          string      `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	CancelledAt     *time.Time  `json:"cancelled_at,omitempty"`
	RefundAmount    int64       `json:"refund_amount"`
	CancellationFee int64       `json:"cancellation_fee"`
}

type refundResponse struct {
	BookingID    uuid.UUID `json:"booking_id"`
	RefundAmount int64     `json:"refund_amount"`
	FeeAmount    int64     `json:"fee_amount"`
}

// --- mapping helpers --------------------------------------------------------

func (req tripRequest) toDomain() domain.Trip {
	return domain.Trip{
		OperatorName:  req.OperatorName,
		Category:      domain.Category(req.Category),
		Origin:        req.Origin,
		Destination:   req.Destination,
		ServiceDate:   req.ServiceDate.Time,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		Capacity:      req.Capacity,
		BaseFare:      domain.Money(req.BaseFare),
	}
}

func tripToResponse(t domain.Trip) tripResponse {
	return tripResponse{
		ID:            t.ID,
		OperatorName:  t.OperatorName,
		Category:      string(t.Category),
		Origin:        t.Origin,
		Destination:   t.Destination,
		ServiceDate:   openapi_types.Date{Time: t.ServiceDate},
		DepartureTime: t.DepartureTime,
		ArrivalTime:   t.ArrivalTime,
		Capacity:      t.Capacity,
		BaseFare:      int64(t.BaseFare),
	}
}

func availabilityToResponse(a service.TripAvailability) tripResponse {
	resp := tripToResponse(a.Trip)
	n := a.AvailableSeats
	resp.AvailableSeats = &n
	return resp
}

func seatsToResponse(seats []domain.Seat) []seatResponse {
	out := make([]seatResponse, len(seats))
	for i, s := range seats {
		out[i] = seatResponse{Number: s.Number, Tier: string(s.Tier), State: string(s.State)}
	}
	return out
}

func passengersToDomain(in []passenger) []domain.PassengerDetail {
	out := make([]domain.PassengerDetail, len(in))
	for i, p := range in {
		out[i] = domain.PassengerDetail{Name: p.Name, Age: p.Age, Gender: domain.Gender(p.Gender)}
	}
	return out
}

func passengersToResponse(in []domain.PassengerDetail) []passenger {
	if in == nil {
		return nil
	}
	out := make([]passenger, len(in))
	for i, p := range in {
		out[i] = passenger{Name: p.Name, Age: p.Age, Gender: string(p.Gender), SeatNumber: p.SeatNumber}
	}
	return out
}

func sessionToResponse(s domain.ReservationSession) sessionResponse {
	resp := sessionResponse{
		ID:         s.ID,
		TripID:     s.TripID,
		Seats:      s.Seats,
		Passengers: passengersToResponse(s.Passengers),
		State:      string(s.State),
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
	}
	if s.BookingID != uuid.Nil {
		id := s.BookingID
		resp.BookingID = &id
	}
	return resp
}

func bookingToResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:     b.ID,
		TripID: b.TripID,
		Trip: bookedTrip{
			OperatorName:  b.Trip.OperatorName,
			Category:      string(b.Trip.Category),
			Origin:        b.Trip.Origin,
			Destination:   b.Trip.Destination,
			ServiceDate:   openapi_types.Date{Time: b.Trip.ServiceDate},
			DepartureTime: b.Trip.DepartureTime,
			ArrivalTime:   b.Trip.ArrivalTime,
		},
		Seats:           b.Seats,
		Passengers:      passengersToResponse(b.Passengers),
		UnitFare:        int64(b.UnitFare),
		TotalPrice:      int64(b.TotalPrice),
		PaymentMethod:   string(b.PaymentMethod),
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		CancelledAt:     b.CancelledAt,
		RefundAmount:    int64(b.RefundAmount),
		CancellationFee: int64(b.CancellationFee),
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func authToResponse(res service.AuthResult) authResponse {
	return authResponse{
		Token: res.Token,
		User: userResponse{
			ID:       res.User.ID,
			Username: res.User.Username,
			Email:    res.User.Email,
			Role:     string(res.User.Role),
		},
	}
}
