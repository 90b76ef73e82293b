// Package domain holds the read models shared by the functions: organizations,
// activities, spots and the people linked to them.
package domain

import "time"

// Status is the attendance state of a spot membership. Values the backend
// adds later decode as-is and match none of the known states.
type Status string

const (
	StatusConfirmed Status = "Confirmed"
	StatusAbsent    Status = "Absent"
	StatusCanceled  Status = "Canceled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusAbsent, StatusCanceled:
		return true
	}
	return false
}

// Role is the membership role of a user on an organization or activity.
// Unknown values decode as-is; callers check Valid where input is accepted.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Person is the subset of a user that is needed to address an email.
type Person struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Organization struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type SpotMembership struct {
	Status Status `json:"status"`
	User   Person `json:"user"`
}

type Spot struct {
	StartsAt     time.Time        `json:"startsAt"`
	EndsAt       time.Time        `json:"endsAt"`
	NumberNeeded int              `json:"numberNeeded"`
	Members      []SpotMembership `json:"members"`
}

// Understaffed reports whether fewer people are linked to the spot than it
// needs, regardless of their status.
func (s Spot) Understaffed() bool {
	return s.NumberNeeded > len(s.Members)
}

// Confirmed counts the members whose status is Confirmed.
func (s Spot) Confirmed() int {
	n := 0
	for _, m := range s.Members {
		if m.Status == StatusConfirmed {
			n++
		}
	}
	return n
}

// AbsentMember reports whether the given email is marked Absent on the spot.
func (s Spot) AbsentMember(email string) bool {
	for _, m := range s.Members {
		if m.User.Email == email && m.Status == StatusAbsent {
			return true
		}
	}
	return false
}

type ActivityMembership struct {
	User Person `json:"user"`
}

type Activity struct {
	ID           string               `json:"id,omitempty"`
	Name         string               `json:"name"`
	Organization Organization         `json:"organization"`
	Members      []ActivityMembership `json:"members"`
	Spots        []Spot               `json:"spots"`
}
