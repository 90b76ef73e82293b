package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/helpoutwithus/functions/internal/domain"
	"github.com/helpoutwithus/functions/internal/function"
	"github.com/helpoutwithus/functions/internal/mail"
	"github.com/helpoutwithus/functions/internal/users"
)

const (
	errNotAuthorizedCreate = "User is not authorized to create an activity"
	errOrgNotAuthorized    = "Current user is not authorized to add members to this organization"
	errOrgLink             = "Unexpected error adding/updating user org link"
)

type CreateOrganizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Link        string `json:"link,omitempty"`
	Timezone    string `json:"timezone"`
}

type CreateOrganizationResult struct {
	CreateOrganizationRequest
	ID                   string `json:"id"`
	InitialAdminMemberID string `json:"initialAdminMemberId"`
}

const createOrganizationMutation = `
mutation createOrganization($name: String!, $timezone: String!, $description: String, $location: String, $link: String) {
  createOrganization(name: $name, timezone: $timezone, description: $description, location: $location, link: $link) {
    id
  }
}`

const createOrgAdminMutation = `
mutation createOrgUserRole($organizationId: ID!, $userId: ID!) {
  createOrganizationUserRole(role: Admin, organizationId: $organizationId, userId: $userId) {
    id
  }
}`

// CreateOrganization creates an organization and makes the caller its admin.
func (s *Service) CreateOrganization(ctx context.Context, ev function.Event[CreateOrganizationRequest]) function.Response {
	if !ev.Context.Auth.Authenticated() {
		return function.Fail(errNotAuthorizedCreate)
	}
	req := ev.Data
	if strings.TrimSpace(req.Name) == "" {
		return function.Fail("Unable to create new org: name is required")
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil || req.Timezone == "" {
		return function.Fail(fmt.Sprintf("Unable to create new org: invalid timezone %q", req.Timezone))
	}

	var created struct {
		CreateOrganization struct {
			ID string `json:"id"`
		} `json:"createOrganization"`
	}
	err := s.exec.Run(ctx, createOrganizationMutation, map[string]any{
		"name":        req.Name,
		"timezone":    req.Timezone,
		"description": req.Description,
		"location":    req.Location,
		"link":        req.Link,
	}, &created)
	if err != nil {
		return function.Fail("Unable to create new org: " + err.Error())
	}

	var role struct {
		CreateOrganizationUserRole struct {
			ID string `json:"id"`
		} `json:"createOrganizationUserRole"`
	}
	err = s.exec.Run(ctx, createOrgAdminMutation, map[string]any{
		"organizationId": created.CreateOrganization.ID,
		"userId":         ev.Context.Auth.NodeID,
	}, &role)
	if err != nil {
		return function.Fail("Unable to create new org: " + err.Error())
	}

	s.log.Info().Str("organization_id", created.CreateOrganization.ID).Str("user_id", ev.Context.Auth.NodeID).Msg("organization created")
	return function.OK(CreateOrganizationResult{
		CreateOrganizationRequest: req,
		ID:                        created.CreateOrganization.ID,
		InitialAdminMemberID:      role.CreateOrganizationUserRole.ID,
	})
}

type AddOrgUserRoleRequest struct {
	OrganizationID string      `json:"organizationId"`
	Role           domain.Role `json:"role"`
	Email          string      `json:"email"`
}

type AddOrgUserRoleResult struct {
	UserID                 string      `json:"userId"`
	OrganizationID         string      `json:"organizationId"`
	Role                   domain.Role `json:"role"`
	OrganizationUserRoleID string      `json:"organizationUserRoleId"`
}

const isOrgAdminQuery = `
query isOrgAdmin($userId: ID!, $organizationId: ID!) {
  allOrganizationUserRoles(filter: {
    user: { id: $userId },
    organization: { id: $organizationId },
    role: Admin
  }) {
    id
  }
}`

const lookupOrgQuery = `
query lookupOrgById($organizationId: ID!) {
  Organization(id: $organizationId) {
    id
    name
  }
}`

const findUserByEmailQuery = `
query findUserByEmail($email: String!, $organizationId: ID!) {
  allUsers(filter: { email: $email }) {
    id
    name
    email
    organizations(filter: { organization: { id: $organizationId } }) {
      id
      role
    }
  }
}`

const orgMemberFields = `
      id
      name
      email
      organizations(filter: { organization: { id: $organizationId } }) {
        id
        role
      }`

const inviteOrgUserMutation = `
mutation inviteOrgUser($organizationId: ID!, $email: String!, $role: Role!) {
  createOrganizationUserRole(role: $role, organizationId: $organizationId, user: { name: $email, email: $email }) {
    id
    user {` + orgMemberFields + `
    }
  }
}`

const addOrgUserRoleMutation = `
mutation addUserToOrg($userId: ID!, $organizationId: ID!, $role: Role!) {
  createOrganizationUserRole(role: $role, organizationId: $organizationId, userId: $userId) {
    id
    user {` + orgMemberFields + `
    }
  }
}`

const updateOrgUserRoleMutation = `
mutation updateOrganizationUserRole($id: ID!, $role: Role!, $organizationId: ID!) {
  updateOrganizationUserRole(id: $id, role: $role) {
    id
    user {` + orgMemberFields + `
    }
  }
}`

var errNoUser = errors.New("no user found")

// AddOrgUserRole grants a role on an organization to the user with the given
// email, inviting them when they have no account yet. The caller must be an
// admin of the organization.
func (s *Service) AddOrgUserRole(ctx context.Context, ev function.Event[AddOrgUserRoleRequest]) function.Response {
	req := ev.Data
	email := strings.ToLower(strings.TrimSpace(req.Email))
	caller := ev.Context.Auth

	if !caller.Authenticated() {
		return function.Fail(errOrgNotAuthorized)
	}
	isAdmin, err := s.isOrgAdmin(ctx, req.OrganizationID, caller.NodeID)
	if err != nil {
		return s.fail(errOrgLink, err)
	}
	if !isAdmin {
		return function.Fail(errOrgNotAuthorized)
	}
	if !req.Role.Valid() {
		return s.fail(errOrgLink, fmt.Errorf("unknown role %q", req.Role))
	}

	currentUser, err := users.Lookup(ctx, s.exec, caller.NodeID)
	if err != nil {
		return s.fail(errOrgLink, err)
	}
	if currentUser == nil {
		return s.fail(errOrgLink, errNoUser)
	}

	org, err := s.lookupOrg(ctx, req.OrganizationID)
	if err != nil {
		return s.fail(errOrgLink, err)
	}

	changed := false
	found, err := s.findUserByEmail(ctx, email, req.OrganizationID)
	switch {
	case errors.Is(err, errNoUser):
		found, err = s.orgRoleMutation(ctx, inviteOrgUserMutation, map[string]any{
			"email": email, "organizationId": req.OrganizationID, "role": req.Role,
		})
		if err != nil {
			return s.fail(errOrgLink, err)
		}
		changed = true
	case err != nil:
		return s.fail(errOrgLink, err)
	}

	switch {
	case len(found.Organizations) == 0:
		found, err = s.orgRoleMutation(ctx, addOrgUserRoleMutation, map[string]any{
			"userId": found.ID, "organizationId": req.OrganizationID, "role": req.Role,
		})
		changed = true
	case found.Organizations[0].Role != req.Role:
		found, err = s.orgRoleMutation(ctx, updateOrgUserRoleMutation, map[string]any{
			"id": found.Organizations[0].ID, "organizationId": req.OrganizationID, "role": req.Role,
		})
		changed = true
	}
	if err != nil {
		return s.fail(errOrgLink, err)
	}
	if len(found.Organizations) == 0 {
		return s.fail(errOrgLink, errors.New("organization role missing after update"))
	}

	if changed {
		s.log.Info().Str("organization_id", req.OrganizationID).Str("user_id", found.ID).Str("role", string(req.Role)).Msg("organization role changed")
		s.notify(ctx, mail.Template{
			To:         []mail.Address{{Email: email, Name: email}},
			Cc:         []mail.Address{{Email: currentUser.Email, Name: currentUser.Email}},
			TemplateID: s.templates.OrgRole,
			Variables: map[string]any{
				"to_email":          email,
				"created_by":        currentUser.Name,
				"organization_name": org.Name,
				"role_name":         string(req.Role),
			},
		})
	}

	return function.OK(AddOrgUserRoleResult{
		UserID:                 found.ID,
		OrganizationID:         req.OrganizationID,
		Role:                   req.Role,
		OrganizationUserRoleID: found.Organizations[0].ID,
	})
}

func (s *Service) isOrgAdmin(ctx context.Context, organizationID, userID string) (bool, error) {
	var resp struct {
		AllOrganizationUserRoles []roleLink `json:"allOrganizationUserRoles"`
	}
	err := s.exec.Run(ctx, isOrgAdminQuery, map[string]any{"userId": userID, "organizationId": organizationID}, &resp)
	if err != nil {
		return false, pkgerrors.Wrap(err, "isOrgAdmin")
	}
	return len(resp.AllOrganizationUserRoles) == 1, nil
}

func (s *Service) lookupOrg(ctx context.Context, organizationID string) (*domain.Organization, error) {
	var resp struct {
		Organization *domain.Organization `json:"Organization"`
	}
	if err := s.exec.Run(ctx, lookupOrgQuery, map[string]any{"organizationId": organizationID}, &resp); err != nil {
		return nil, pkgerrors.Wrap(err, "lookupOrgById")
	}
	if resp.Organization == nil {
		return nil, fmt.Errorf("organization %s not found", organizationID)
	}
	return resp.Organization, nil
}

func (s *Service) findUserByEmail(ctx context.Context, email, organizationID string) (*member, error) {
	var resp struct {
		AllUsers []member `json:"allUsers"`
	}
	if err := s.exec.Run(ctx, findUserByEmailQuery, map[string]any{"email": email, "organizationId": organizationID}, &resp); err != nil {
		return nil, pkgerrors.Wrap(err, "findUserByEmail")
	}
	if len(resp.AllUsers) == 0 {
		return nil, errNoUser
	}
	return &resp.AllUsers[0], nil
}

// orgRoleMutation runs a create/update organization role mutation and
// returns the affected user.
func (s *Service) orgRoleMutation(ctx context.Context, mutation string, vars map[string]any) (*member, error) {
	var resp map[string]struct {
		ID   string `json:"id"`
		User member `json:"user"`
	}
	if err := s.exec.Run(ctx, mutation, vars, &resp); err != nil {
		return nil, pkgerrors.Wrap(err, "organization role")
	}
	for _, v := range resp {
		u := v.User
		return &u, nil
	}
	return nil, errors.New("empty organization role response")
}
