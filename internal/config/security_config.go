package config

type SecurityLevel int

const (
	SecurityPublic   SecurityLevel = iota // No authentication
	SecurityCustomer                      // Access token with the customer or staff role
	SecurityStaff                         // Access token with the staff role
)

// EndpointSecurityConfig maps route names to their required security level.
// Routes missing from the map are treated as staff-only.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"Health":        SecurityPublic,
	"ListAvailable": SecurityPublic,

	"QuoteReservation":  SecurityCustomer,
	"CreateReservation": SecurityCustomer,
	"GetReservation":    SecurityCustomer,

	"SetReservationStatus": SecurityStaff,
	"RecordPayment":        SecurityStaff,
	"GetCalendar":          SecurityStaff,
}

// RequiredLevel returns the security level for a route name.
func RequiredLevel(route string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[route]; ok {
		return level
	}
	return SecurityStaff
}
