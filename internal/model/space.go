package model

// Space is a bookable physical unit: a room, a box or a desk.  Each space
// belongs to a zone and carries a status from the "space" scope.
//
// Fields:
//  ID       – primary key identifier.
//  ZoneID   – zone containing the space (nil if unassigned).
//  Number   – number shown on the door, unique per zone.
//  StatusID – space status (available, maintenance...); nil if unknown.
//  Activity – free text describing what the space is used for.
type Space struct {
    ID       uint64  `json:"id"`                  // spaces.id
    ZoneID   *uint64 `json:"zone_id,omitempty"`   // spaces.zone_id (nullable)
    Number   int     `json:"number"`              // spaces.number
    StatusID *uint64 `json:"status_id,omitempty"` // spaces.status_id (nullable)
    Activity string  `json:"activity"`            // spaces.activity
}

// SpaceResource links a resource to a space together with the resource's
// state in that space.  It is the join table between spaces and resources.
type SpaceResource struct {
    SpaceID    uint64  `json:"space_id"`            // space_resources.space_id
    ResourceID uint64  `json:"resource_id"`         // space_resources.resource_id
    StatusID   *uint64 `json:"status_id,omitempty"` // space_resources.status_id (nullable)
}
