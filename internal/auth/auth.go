// Package auth models the caller identity attached to every function event.
package auth

import "errors"

// Principal classes issued by the backend.
const (
	TypeRoot = "PAT"
	TypeUser = "User"
)

var (
	ErrInvalidToken            = errors.New("Invalid token supplied")
	ErrInsufficientPermissions = errors.New("Insufficient permissions to execute this mutation")
)

// Context identifies the caller. A nil Context is an anonymous caller.
type Context struct {
	NodeID   string `json:"nodeId"`
	TypeName string `json:"typeName"`
	Token    string `json:"token,omitempty"`
}

// Authenticated reports whether the context names a node.
func (c *Context) Authenticated() bool {
	return c != nil && c.NodeID != ""
}

// RequireRoot accepts only a root (permanent access token) principal.
func RequireRoot(c *Context) error {
	if !c.Authenticated() {
		return ErrInvalidToken
	}
	if c.TypeName != TypeRoot {
		return ErrInsufficientPermissions
	}
	return nil
}

// Root returns the context used by trusted in-process callers such as the
// reminder daemon.
func Root(nodeID string) *Context {
	return &Context{NodeID: nodeID, TypeName: TypeRoot}
}
