package model

// User is a person that can hold reservations.  Users are identified by
// their RUT, the national identity number, which is used as natural key.
//
// Fields:
//  RUT       – natural primary key (up to 11 characters, e.g. 12345678-9).
//  FirstName – given name.
//  LastName  – family name.
//  BirthDate – optional birth date in YYYY-MM-DD.
type User struct {
    RUT       string  `json:"rut"`                  // users.rut
    FirstName string  `json:"first_name"`           // users.first_name
    LastName  string  `json:"last_name"`            // users.last_name
    BirthDate *string `json:"birth_date,omitempty"` // users.birth_date (nullable)
}

// Responsible is the person accountable for the activity carried out in a
// reserved space.  A responsible is tied to the activity type they run.
type Responsible struct {
    RUT            string  `json:"rut"`                        // responsibles.rut
    ActivityTypeID *uint64 `json:"activity_type_id,omitempty"` // responsibles.activity_type_id (nullable)
    FirstName      string  `json:"first_name"`                 // responsibles.first_name
    LastName       string  `json:"last_name"`                  // responsibles.last_name
    BirthDate      *string `json:"birth_date,omitempty"`       // responsibles.birth_date (nullable)
}

// MaxRUTLength bounds the natural key of users and responsibles.
const MaxRUTLength = 11
