package reminders

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/helpoutwithus/functions/internal/backend"
	"github.com/helpoutwithus/functions/internal/domain"
)

const unfilledQuery = `
query getUpcomingSpots($startRange: DateTime!, $endRange: DateTime) {
  allActivities(filter: {
    spots_some: {
      startsAt_gte: $startRange,
      startsAt_lt: $endRange
    }
  }) {
    organization {
      name
      timezone
    }
    name
    members {
      user {
        name
        email
      }
    }
    spots(filter: {
      startsAt_gte: $startRange,
      startsAt_lt: $endRange
    }) {
      startsAt
      endsAt
      numberNeeded
      members {
        status
        user {
          name
          email
        }
      }
    }
  }
}`

const personalQuery = `
query getMyUpcomingSpots($startRange: DateTime!, $endRange: DateTime) {
  allUsers(filter: {
    spots_some: {
      status: Confirmed,
      spot: {
        startsAt_gte: $startRange,
        startsAt_lt: $endRange
      }
    }
  }) {
    name
    email
    spots(filter: {
      status: Confirmed,
      spot: {
        startsAt_gte: $startRange,
        startsAt_lt: $endRange
      }
    }) {
      spot {
        activity {
          name
          organization {
            name
            timezone
          }
        }
        startsAt
        endsAt
      }
    }
  }
}`

const adminQuery = `
query getAdminSummaries($startRange: DateTime!, $endRange: DateTime) {
  allUsers(filter: {
    activities_some: {
      role: Admin
    }
  }) {
    name
    email
    activities(filter: {
      role: Admin
    }) {
      activity {
        name
        organization {
          name
          timezone
        }
        spots(filter: {
          startsAt_gte: $startRange,
          startsAt_lt: $endRange
        }, orderBy: endsAt_ASC) {
          startsAt
          endsAt
          numberNeeded
          members(filter: {
            status_not: Canceled
          }) {
            status
            user {
              name
              email
            }
          }
        }
      }
    }
  }
}`

type linkedSpot struct {
	Activity domain.Activity `json:"activity"`
	StartsAt time.Time       `json:"startsAt"`
	EndsAt   time.Time       `json:"endsAt"`
}

type userSpotLink struct {
	Spot linkedSpot `json:"spot"`
}

// personalUser is a user with their confirmed spots inside the window.
type personalUser struct {
	domain.Person
	Spots []userSpotLink `json:"spots"`
}

type adminActivityLink struct {
	Activity domain.Activity `json:"activity"`
}

// adminUser is a user with the activities they administer.
type adminUser struct {
	domain.Person
	Activities []adminActivityLink `json:"activities"`
}

func fetchUnfilled(ctx context.Context, exec backend.Executor, w TimeWindow) ([]domain.Activity, error) {
	var resp struct {
		AllActivities []domain.Activity `json:"allActivities"`
	}
	if err := exec.Run(ctx, unfilledQuery, w.vars(), &resp); err != nil {
		return nil, errors.Wrap(err, "getUpcomingSpots")
	}
	return resp.AllActivities, nil
}

func fetchPersonal(ctx context.Context, exec backend.Executor, w TimeWindow) ([]personalUser, error) {
	var resp struct {
		AllUsers []personalUser `json:"allUsers"`
	}
	if err := exec.Run(ctx, personalQuery, w.vars(), &resp); err != nil {
		return nil, errors.Wrap(err, "getMyUpcomingSpots")
	}
	return resp.AllUsers, nil
}

func fetchAdmins(ctx context.Context, exec backend.Executor, w TimeWindow) ([]adminUser, error) {
	var resp struct {
		AllUsers []adminUser `json:"allUsers"`
	}
	if err := exec.Run(ctx, adminQuery, w.vars(), &resp); err != nil {
		return nil, errors.Wrap(err, "getAdminSummaries")
	}
	return resp.AllUsers, nil
}
