package domain

import "strings"

//go:generate go run github.com/dmarkham/enumer -type Relationship -trimprefix Relationship -json -sql -output relationship.gen.go

// Relationship describes how an additional member relates to the primary applicant.
type Relationship int

const (
	RelationshipSpouse Relationship = iota
	RelationshipSibling
	RelationshipParent
	RelationshipFriend
	RelationshipOther
)

// ParseRelationship returns nil for blank or unknown values.
func ParseRelationship(s string) *Relationship {
	r, err := RelationshipString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &r
}
