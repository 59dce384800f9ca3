package services

import (
	"net/http"
	"sort"

	"github.com/lborres/bantay/core"
)

const (
	ActionAuthURL  = "auth-url"
	ActionCallback = "callback"
	ActionRefresh  = "refresh"
	ActionLogout   = "logout"
)

// BaseActions returns framework-agnostic descriptions for the four
// session actions.
//
// Each action is a template. Adapters look actions up by Name and provide
// their own handlers.
func BaseActions() []core.Action {
	return []core.Action{
		{
			Name: ActionAuthURL,
			Metadata: core.ActionMetadata{
				OperationID: "getAuthorizationURL",
				Description: "Build the Google authorization URL and a fresh state value",
				Responses: map[int]interface{}{
					http.StatusOK:                  core.AuthorizationURLResult{},
					http.StatusInternalServerError: core.ErrorResponse{},
				},
			},
		},
		{
			Name: ActionCallback,
			Metadata: core.ActionMetadata{
				OperationID: "signInWithGoogle",
				Description: "Exchange an authorization code and start a session",
				RequestBody: core.CallbackRequest{},
				Responses: map[int]interface{}{
					http.StatusOK:                  core.LoginResult{},
					http.StatusBadRequest:          core.ErrorResponse{},
					http.StatusInternalServerError: core.ErrorResponse{},
				},
			},
		},
		{
			Name: ActionRefresh,
			Metadata: core.ActionMetadata{
				OperationID: "refreshAccessToken",
				Description: "Mint a new access token from a refresh token",
				RequestBody: core.RefreshRequest{},
				Responses: map[int]interface{}{
					http.StatusOK:                  core.RefreshResult{},
					http.StatusBadRequest:          core.ErrorResponse{},
					http.StatusUnauthorized:        core.ErrorResponse{},
					http.StatusInternalServerError: core.ErrorResponse{},
				},
			},
		},
		{
			Name: ActionLogout,
			Metadata: core.ActionMetadata{
				OperationID: "signOut",
				Description: "Revoke a refresh token",
				RequestBody: core.RefreshRequest{},
				Responses: map[int]interface{}{
					http.StatusOK: core.MessageResponse{},
				},
			},
		},
	}
}

// ActionRegistry holds the actions served on the auth route, keyed by name.
type ActionRegistry struct {
	actions map[string]*core.Action
}

// NewActionRegistry creates a registry with all base actions pre-registered.
func NewActionRegistry() *ActionRegistry {
	reg := &ActionRegistry{
		actions: make(map[string]*core.Action),
	}

	for _, a := range BaseActions() {
		a := a
		reg.actions[a.Name] = &a
	}

	return reg
}

// Actions returns all registered actions ordered by name.
func (r *ActionRegistry) Actions() []*core.Action {
	result := make([]*core.Action, 0, len(r.actions))
	for _, a := range r.actions {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
