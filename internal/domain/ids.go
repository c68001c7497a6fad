package domain

// ApplicationID is the identifier of an insurance application (UUID string).
type ApplicationID string

// MemberID identifies a member row. Primary and additional members share the same id space.
type MemberID string

// AddressID identifies an address row.
type AddressID string

// VehicleID identifies a vehicle row.
type VehicleID string
