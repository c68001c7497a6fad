// Package gormstore is a gorm-backed implementation of the application
// repository. It shares the Postgres schema managed by the db migrations.
package gormstore

import "time"

// Field names avoid CreatedAt/UpdatedAt so gorm does not stamp them on its own.
type applicationModel struct {
	ID          string     `gorm:"column:id;primaryKey;type:uuid"`
	MemberID    *string    `gorm:"column:member_id;type:uuid"`
	Status      string     `gorm:"column:status;not null"`
	QuoteNumber *float64   `gorm:"column:quote_number"`
	Created     time.Time  `gorm:"column:created_at;not null"`
	Updated     time.Time  `gorm:"column:updated_at;not null"`
	SubmittedAt *time.Time `gorm:"column:submitted_at"`
}

func (applicationModel) TableName() string {
	return "applications"
}

type memberModel struct {
	ID                      string     `gorm:"column:id;primaryKey;type:uuid"`
	FirstName               string     `gorm:"column:first_name;not null"`
	LastName                string     `gorm:"column:last_name;not null"`
	DateOfBirth             *time.Time `gorm:"column:date_of_birth;type:date"`
	Relationship            *string    `gorm:"column:relationship"`
	AdditionalApplicationID *string    `gorm:"column:additional_application_id;type:uuid"`
	Position                int        `gorm:"column:position;not null"`
}

func (memberModel) TableName() string {
	return "members"
}

type addressModel struct {
	ID            string `gorm:"column:id;primaryKey;type:uuid"`
	ApplicationID string `gorm:"column:application_id;type:uuid;uniqueIndex"`
	Street        string `gorm:"column:street;not null"`
	City          string `gorm:"column:city;not null"`
	State         string `gorm:"column:state;not null"`
	ZipCode       *int   `gorm:"column:zip_code"`
}

func (addressModel) TableName() string {
	return "addresses"
}

type vehicleModel struct {
	ID            string `gorm:"column:id;primaryKey;type:uuid"`
	ApplicationID string `gorm:"column:application_id;type:uuid;index"`
	VIN           string `gorm:"column:vin;not null"`
	Year          *int   `gorm:"column:year"`
	Make          string `gorm:"column:make;not null"`
	Model         string `gorm:"column:model;not null"`
	Position      int    `gorm:"column:position;not null"`
}

func (vehicleModel) TableName() string {
	return "vehicles"
}
