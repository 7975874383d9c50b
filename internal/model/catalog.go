package model

// ActivityType classifies the activity a responsible runs (class, meeting,
// workshop...).
type ActivityType struct {
    ID   uint64 `json:"id"`   // activity_types.id
    Name string `json:"name"` // activity_types.name
}

// StatusScope tells which entity a status applies to.
type StatusScope string

const (
    ScopeReservation StatusScope = "reservation"
    ScopeSpace       StatusScope = "space"
    ScopeResource    StatusScope = "resource"
)

// Valid reports whether s is one of the known scopes.
func (s StatusScope) Valid() bool {
    switch s {
    case ScopeReservation, ScopeSpace, ScopeResource:
        return true
    }
    return false
}

// Status is a row of the statuses lookup table.
type Status struct {
    ID    uint64      `json:"id"`    // statuses.id
    Scope StatusScope `json:"scope"` // statuses.scope
    Name  string      `json:"name"`  // statuses.name
}

// Seeded status identifiers.  Both backends create these rows on
// initialisation so business rules can refer to them by id.
const (
    StatusReservationPending   uint64 = 1
    StatusReservationConfirmed uint64 = 2
    StatusReservationCancelled uint64 = 3
    StatusReservationFinished  uint64 = 4
    StatusSpaceAvailable       uint64 = 5
    StatusSpaceMaintenance     uint64 = 6
    StatusResourceOperational  uint64 = 7
    StatusResourceBroken       uint64 = 8
)

// DefaultStatuses lists the seed rows in id order.
func DefaultStatuses() []Status {
    return []Status{
        {ID: StatusReservationPending, Scope: ScopeReservation, Name: "pending"},
        {ID: StatusReservationConfirmed, Scope: ScopeReservation, Name: "confirmed"},
        {ID: StatusReservationCancelled, Scope: ScopeReservation, Name: "cancelled"},
        {ID: StatusReservationFinished, Scope: ScopeReservation, Name: "finished"},
        {ID: StatusSpaceAvailable, Scope: ScopeSpace, Name: "available"},
        {ID: StatusSpaceMaintenance, Scope: ScopeSpace, Name: "maintenance"},
        {ID: StatusResourceOperational, Scope: ScopeResource, Name: "operational"},
        {ID: StatusResourceBroken, Scope: ScopeResource, Name: "broken"},
    }
}
