package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/helpoutwithus/functions/internal/domain"
	"github.com/helpoutwithus/functions/internal/function"
	"github.com/helpoutwithus/functions/internal/mail"
	"github.com/helpoutwithus/functions/internal/users"
)

const (
	errActivityNotAuthorized = "Current user is not authorized to add members to this activity"
	errActivityLink          = "Unexpected error adding/updating user activity link"
)

var errNotOrgMember = errors.New("No such user found - please request an admin to invite them to the organization first")

type CreateActivityRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Location       string `json:"location,omitempty"`
	OrganizationID string `json:"organizationId"`
}

type CreateActivityResult struct {
	CreateActivityRequest
	ID                   string `json:"id"`
	InitialAdminMemberID string `json:"initialAdminMemberId"`
}

const createActivityMutation = `
mutation createActivity($name: String!, $description: String, $location: String, $organizationId: ID!) {
  createActivity(name: $name, description: $description, location: $location, organizationId: $organizationId) {
    id
  }
}`

const createActivityAdminMutation = `
mutation createActivityUserRole($activityId: ID!, $userId: ID!) {
  createActivityUserRole(role: Admin, activityId: $activityId, userId: $userId) {
    id
  }
}`

// CreateActivity creates an activity in an organization and makes the caller
// its admin.
func (s *Service) CreateActivity(ctx context.Context, ev function.Event[CreateActivityRequest]) function.Response {
	if !ev.Context.Auth.Authenticated() {
		return function.Fail(errNotAuthorizedCreate)
	}
	req := ev.Data
	if strings.TrimSpace(req.Name) == "" || req.OrganizationID == "" {
		return function.Fail("Unable to create new activity: name and organizationId are required")
	}

	var created struct {
		CreateActivity struct {
			ID string `json:"id"`
		} `json:"createActivity"`
	}
	err := s.exec.Run(ctx, createActivityMutation, map[string]any{
		"name":           req.Name,
		"description":    req.Description,
		"location":       req.Location,
		"organizationId": req.OrganizationID,
	}, &created)
	if err != nil {
		return function.Fail("Unable to create new activity: " + err.Error())
	}

	var role struct {
		CreateActivityUserRole struct {
			ID string `json:"id"`
		} `json:"createActivityUserRole"`
	}
	err = s.exec.Run(ctx, createActivityAdminMutation, map[string]any{
		"activityId": created.CreateActivity.ID,
		"userId":     ev.Context.Auth.NodeID,
	}, &role)
	if err != nil {
		return function.Fail("Unable to create new activity: " + err.Error())
	}

	s.log.Info().Str("activity_id", created.CreateActivity.ID).Str("user_id", ev.Context.Auth.NodeID).Msg("activity created")
	return function.OK(CreateActivityResult{
		CreateActivityRequest: req,
		ID:                    created.CreateActivity.ID,
		InitialAdminMemberID:  role.CreateActivityUserRole.ID,
	})
}

type AddActivityUserRoleRequest struct {
	ActivityID string      `json:"activityId"`
	Role       domain.Role `json:"role"`
	UserID     string      `json:"userId"`
}

type AddActivityUserRoleResult struct {
	UserID             string      `json:"userId"`
	ActivityID         string      `json:"activityId"`
	Role               domain.Role `json:"role"`
	ActivityUserRoleID string      `json:"activityUserRoleId"`
}

const isActivityAdminQuery = `
query isAdmin($userId: ID!, $activityId: ID!) {
  allActivities(filter: {
    id: $activityId,
    OR: [
      { members_some: { role: Admin, user: { id: $userId } } },
      { organization: { members_some: { role: Admin, user: { id: $userId } } } }
    ]
  }) {
    id
  }
}`

const lookupActivityQuery = `
query lookupDataByActivityId($activityId: ID!) {
  Activity(id: $activityId) {
    id
    name
    organization {
      id
      name
    }
  }
}`

const lookupMemberQuery = `
query lookupUserByUserId($userId: ID!, $activityId: ID!, $organizationId: ID!) {
  User(id: $userId) {
    id
    name
    email
    organizations(filter: { organization: { id: $organizationId } }) {
      id
      role
    }
    activities(filter: { activity: { id: $activityId } }) {
      id
      role
    }
  }
}`

const activityMemberFields = `
      id
      name
      email
      activities(filter: { activity: { id: $activityId } }) {
        id
        role
      }`

const addActivityUserRoleMutation = `
mutation addActivityUserRole($userId: ID!, $activityId: ID!, $role: Role!) {
  createActivityUserRole(role: $role, activityId: $activityId, userId: $userId) {
    id
    user {` + activityMemberFields + `
    }
  }
}`

const updateActivityUserRoleMutation = `
mutation updateActivityUserRole($id: ID!, $role: Role!, $activityId: ID!) {
  updateActivityUserRole(id: $id, role: $role) {
    id
    user {` + activityMemberFields + `
    }
  }
}`

// AddActivityUserRole grants a role on an activity to an existing member of
// the activity's organization. The caller must administer the activity or
// its organization.
func (s *Service) AddActivityUserRole(ctx context.Context, ev function.Event[AddActivityUserRoleRequest]) function.Response {
	req := ev.Data
	caller := ev.Context.Auth

	if !caller.Authenticated() {
		return function.Fail(errActivityNotAuthorized)
	}
	isAdmin, err := s.isActivityAdmin(ctx, req.ActivityID, caller.NodeID)
	if err != nil {
		return s.fail(errActivityLink, err)
	}
	if !isAdmin {
		return function.Fail(errActivityNotAuthorized)
	}
	if !req.Role.Valid() {
		return s.fail(errActivityLink, fmt.Errorf("unknown role %q", req.Role))
	}

	currentUser, err := users.Lookup(ctx, s.exec, caller.NodeID)
	if err != nil {
		return s.fail(errActivityLink, err)
	}
	if currentUser == nil {
		return s.fail(errActivityLink, errNoUser)
	}

	activity, err := s.lookupActivity(ctx, req.ActivityID)
	if err != nil {
		return s.fail(errActivityLink, err)
	}

	found, err := s.lookupMember(ctx, req.UserID, activity)
	if err != nil {
		return s.fail(errActivityLink, err)
	}
	if found == nil || len(found.Organizations) == 0 {
		return s.fail(errActivityLink, errNotOrgMember)
	}

	changed := false
	switch {
	case len(found.Activities) == 0:
		found, err = s.activityRoleMutation(ctx, addActivityUserRoleMutation, map[string]any{
			"userId": found.ID, "activityId": req.ActivityID, "role": req.Role,
		})
		changed = true
	case found.Activities[0].Role != req.Role:
		found, err = s.activityRoleMutation(ctx, updateActivityUserRoleMutation, map[string]any{
			"id": found.Activities[0].ID, "activityId": req.ActivityID, "role": req.Role,
		})
		changed = true
	}
	if err != nil {
		return s.fail(errActivityLink, err)
	}
	if len(found.Activities) == 0 {
		return s.fail(errActivityLink, errors.New("activity role missing after update"))
	}

	if changed {
		s.log.Info().Str("activity_id", req.ActivityID).Str("user_id", found.ID).Str("role", string(req.Role)).Msg("activity role changed")
		s.notify(ctx, mail.Template{
			To:         []mail.Address{{Email: found.Email, Name: found.Email}},
			Cc:         []mail.Address{{Email: currentUser.Email, Name: currentUser.Email}},
			TemplateID: s.templates.ActivityRole,
			Variables: map[string]any{
				"to_email":          found.Name,
				"created_by":        currentUser.Name,
				"organization_name": activity.Organization.Name,
				"activity_name":     activity.Name,
				"role_name":         string(req.Role),
			},
		})
	}

	return function.OK(AddActivityUserRoleResult{
		UserID:             found.ID,
		ActivityID:         req.ActivityID,
		Role:               req.Role,
		ActivityUserRoleID: found.Activities[0].ID,
	})
}

func (s *Service) isActivityAdmin(ctx context.Context, activityID, userID string) (bool, error) {
	var resp struct {
		AllActivities []struct {
			ID string `json:"id"`
		} `json:"allActivities"`
	}
	err := s.exec.Run(ctx, isActivityAdminQuery, map[string]any{"userId": userID, "activityId": activityID}, &resp)
	if err != nil {
		return false, pkgerrors.Wrap(err, "isAdmin")
	}
	return len(resp.AllActivities) == 1, nil
}

func (s *Service) lookupActivity(ctx context.Context, activityID string) (*domain.Activity, error) {
	var resp struct {
		Activity *domain.Activity `json:"Activity"`
	}
	if err := s.exec.Run(ctx, lookupActivityQuery, map[string]any{"activityId": activityID}, &resp); err != nil {
		return nil, pkgerrors.Wrap(err, "lookupDataByActivityId")
	}
	if resp.Activity == nil {
		return nil, fmt.Errorf("activity %s not found", activityID)
	}
	return resp.Activity, nil
}

func (s *Service) lookupMember(ctx context.Context, userID string, activity *domain.Activity) (*member, error) {
	var resp struct {
		User *member `json:"User"`
	}
	err := s.exec.Run(ctx, lookupMemberQuery, map[string]any{
		"userId":         userID,
		"activityId":     activity.ID,
		"organizationId": activity.Organization.ID,
	}, &resp)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "lookupUserByUserId")
	}
	return resp.User, nil
}

func (s *Service) activityRoleMutation(ctx context.Context, mutation string, vars map[string]any) (*member, error) {
	var resp map[string]struct {
		ID   string `json:"id"`
		User member `json:"user"`
	}
	if err := s.exec.Run(ctx, mutation, vars, &resp); err != nil {
		return nil, pkgerrors.Wrap(err, "activity role")
	}
	for _, v := range resp {
		u := v.User
		return &u, nil
	}
	return nil, errors.New("empty activity role response")
}
