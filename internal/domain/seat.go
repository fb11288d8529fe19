package domain

// PremiumFromSeat is the first seat number in the premium tier. Seats below it
// are standard.
const PremiumFromSeat = 21

// SeatState is the availability of a single seat.
type SeatState string

const (
	SeatAvailable SeatState = "available"
	SeatHeld      SeatState = "held"
	SeatBooked    SeatState = "booked"
)

// SeatTier is the price/comfort band of a seat, derived from its position.
type SeatTier string

const (
	TierStandard SeatTier = "standard"
	TierPremium  SeatTier = "premium"
)

// TierFor returns the tier of the given seat number.
func TierFor(number int) SeatTier {
	if number >= PremiumFromSeat {
		return TierPremium
	}
	return TierStandard
}

// Seat is one entry of a trip's seat map as seen by readers.
// The holder is deliberately not exposed.
type Seat struct {
	Number int
	Tier   SeatTier
	State  SeatState
}

// SeatCounts totals a seat map by state.
type SeatCounts struct {
	Available int
	Held      int
	Booked    int
}
