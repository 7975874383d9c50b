package model

// Zone groups spaces that share a physical area (a floor, a building wing).
//
// Fields:
//  ID   – primary key identifier.
//  Name – human readable label.
type Zone struct {
    ID   uint64 `json:"id"`   // zones.id
    Name string `json:"name"` // zones.name
}

// ZoneResponsible assigns a responsible to a zone they look after.
type ZoneResponsible struct {
    ZoneID         uint64 `json:"zone_id"`         // zone_responsibles.zone_id
    ResponsibleRUT string `json:"responsible_rut"` // zone_responsibles.responsible_rut
}
