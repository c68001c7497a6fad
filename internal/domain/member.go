package domain

import "time"

// Member is the primary applicant of an application.
// DateOfBirth is nil until a parseable date has been supplied.
type Member struct {
	ID          MemberID
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
}

// AdditionalMember is another household member listed on an application.
// It is stored alongside primary members but linked through its own application reference.
type AdditionalMember struct {
	ID            MemberID
	ApplicationID ApplicationID
	FirstName     string
	LastName      string
	DateOfBirth   *time.Time
	Relationship  *Relationship
}

// Age returns the number of whole years between dob and today.
// A birthday that has not yet occurred in today's year does not count.
func Age(today, dob time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}
