package domain

// JourneyType groups templates by use case.
type JourneyType struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Known journey identifiers.
const (
	JourneyPayment  = "PAYMENT"
	JourneyTicket   = "TICKET"
	JourneyIdentity = "IDENTITY"
)

var journeyTypes = []JourneyType{
	{ID: JourneyPayment, Name: "Payment"},
	{ID: JourneyTicket, Name: "Ticket"},
	{ID: JourneyIdentity, Name: "Identity"},
}

// JourneyTypes returns the fixed list of journey types.
func JourneyTypes() []JourneyType {
	out := make([]JourneyType, len(journeyTypes))
	copy(out, journeyTypes)
	return out
}

// IsValidJourney reports whether id is one of the known journey identifiers.
func IsValidJourney(id string) bool {
	for _, j := range journeyTypes {
		if j.ID == id {
			return true
		}
	}
	return false
}
