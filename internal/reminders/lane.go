package reminders

import (
	"strings"

	"github.com/helpoutwithus/functions/internal/domain"
	"github.com/helpoutwithus/functions/internal/mail"
)

// Lane is one independent notification computation.
type Lane int

const (
	LaneUnfilled Lane = iota
	LanePersonal
	LaneAdminSummary
)

func (l Lane) String() string {
	switch l {
	case LaneUnfilled:
		return "unfilled"
	case LanePersonal:
		return "personal"
	case LaneAdminSummary:
		return "admin_summary"
	}
	return "unknown"
}

// Fill labels used by the admin summary.
const (
	Filled   = "FILLED"
	Unfilled = "UNFILLED"
)

// Notification is one email to send. Subject names the activity or user it
// is about, for logs and the delivery log.
type Notification struct {
	Lane     Lane
	Subject  string
	Template mail.Template
}

type spotTimes struct {
	Starts string `json:"starts"`
	Ends   string `json:"ends"`
}

// qualifyingActivities keeps only understaffed spots and drops activities
// left without any. The input is not modified.
func qualifyingActivities(acts []domain.Activity) []domain.Activity {
	out := make([]domain.Activity, 0, len(acts))
	for _, a := range acts {
		spots := make([]domain.Spot, 0, len(a.Spots))
		for _, s := range a.Spots {
			if s.Understaffed() {
				spots = append(spots, s)
			}
		}
		if len(spots) == 0 {
			continue
		}
		a.Spots = spots
		out = append(out, a)
	}
	return out
}

// unfilledRecipients returns the activity members who are not marked Absent
// on every one of the activity's spots. Duplicate emails are collapsed.
func unfilledRecipients(a domain.Activity) []mail.Address {
	seen := make(map[string]bool, len(a.Members))
	out := make([]mail.Address, 0, len(a.Members))
	for _, m := range a.Members {
		key := strings.ToLower(m.User.Email)
		if seen[key] {
			continue
		}
		absent := 0
		for _, s := range a.Spots {
			if s.AbsentMember(m.User.Email) {
				absent++
			}
		}
		if absent == len(a.Spots) {
			continue
		}
		seen[key] = true
		out = append(out, mail.Address{Email: m.User.Email, Name: m.User.Name})
	}
	return out
}

func unfilledNotifications(acts []domain.Activity, templateID int, z *zones) []Notification {
	out := make([]Notification, 0, len(acts))
	for _, a := range qualifyingActivities(acts) {
		to := unfilledRecipients(a)
		loc := z.get(a.Organization.Timezone)
		spots := make([]spotTimes, 0, len(a.Spots))
		for _, s := range a.Spots {
			starts, ends := FormatRange(s.StartsAt, s.EndsAt, loc)
			spots = append(spots, spotTimes{Starts: starts, Ends: ends})
		}
		out = append(out, Notification{
			Lane:    LaneUnfilled,
			Subject: a.Name,
			Template: mail.Template{
				To:         to,
				TemplateID: templateID,
				Variables:  map[string]any{"team": a.Name, "spots": spots},
			},
		})
	}
	return out
}

type personalSpot struct {
	Activity personalActivity `json:"activity"`
	Starts   string           `json:"starts"`
	Ends     string           `json:"ends"`
}

type personalActivity struct {
	Name         string           `json:"name"`
	Organization organizationName `json:"organization"`
}

type organizationName struct {
	Name string `json:"name"`
}

func personalNotifications(users []personalUser, templateID int, z *zones) []Notification {
	out := make([]Notification, 0, len(users))
	for _, u := range users {
		if len(u.Spots) == 0 {
			continue
		}
		spots := make([]personalSpot, 0, len(u.Spots))
		for _, link := range u.Spots {
			act := link.Spot.Activity
			starts, ends := FormatRange(link.Spot.StartsAt, link.Spot.EndsAt, z.get(act.Organization.Timezone))
			spots = append(spots, personalSpot{
				Activity: personalActivity{Name: act.Name, Organization: organizationName{Name: act.Organization.Name}},
				Starts:   starts,
				Ends:     ends,
			})
		}
		out = append(out, Notification{
			Lane:    LanePersonal,
			Subject: u.Email,
			Template: mail.Template{
				To:         []mail.Address{{Email: u.Email, Name: u.Name}},
				TemplateID: templateID,
				Variables:  map[string]any{"name": u.Name, "spots": spots},
			},
		})
	}
	return out
}

type summarySpot struct {
	Activity     string          `json:"activity"`
	Organization string          `json:"organization"`
	Starts       string          `json:"starts"`
	Ends         string          `json:"ends"`
	Status       string          `json:"status"`
	NumberNeeded int             `json:"numberNeeded"`
	Confirmed    int             `json:"confirmed"`
	Members      []summaryMember `json:"members"`
}

type summaryMember struct {
	Name   string        `json:"name"`
	Email  string        `json:"email"`
	Status domain.Status `json:"status"`
}

// fillStatus counts only confirmed members, unlike the unfilled lane which
// counts every linked member.
func fillStatus(s domain.Spot) string {
	if s.NumberNeeded-s.Confirmed() > 0 {
		return Unfilled
	}
	return Filled
}

func adminNotifications(users []adminUser, templateID int, z *zones) []Notification {
	out := make([]Notification, 0, len(users))
	for _, u := range users {
		var spots []summarySpot
		for _, link := range u.Activities {
			a := link.Activity
			loc := z.get(a.Organization.Timezone)
			for _, s := range a.Spots {
				starts, ends := FormatRange(s.StartsAt, s.EndsAt, loc)
				members := make([]summaryMember, 0, len(s.Members))
				for _, m := range s.Members {
					if m.Status == domain.StatusCanceled {
						continue
					}
					members = append(members, summaryMember{Name: m.User.Name, Email: m.User.Email, Status: m.Status})
				}
				spots = append(spots, summarySpot{
					Activity:     a.Name,
					Organization: a.Organization.Name,
					Starts:       starts,
					Ends:         ends,
					Status:       fillStatus(s),
					NumberNeeded: s.NumberNeeded,
					Confirmed:    s.Confirmed(),
					Members:      members,
				})
			}
		}
		if len(spots) == 0 {
			continue
		}
		out = append(out, Notification{
			Lane:    LaneAdminSummary,
			Subject: u.Email,
			Template: mail.Template{
				To:         []mail.Address{{Email: u.Email, Name: u.Name}},
				TemplateID: templateID,
				Variables:  map[string]any{"name": u.Name, "spots": spots},
			},
		})
	}
	return out
}
