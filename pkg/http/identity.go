package http

import (
	"net/http"
	"strings"

	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/model"
)

const (
	HeaderActorID       = "X-Actor-ID"
	HeaderActorRole     = "X-Actor-Role"
	HeaderActorVerified = "X-Actor-Verified"
)

// ExtractActor reads the acting principal from the identity headers set by
// the gateway. The role defaults to client when the header is absent. The
// verified flag marks a confirmed contact channel; booking requires it for
// non-staff actors.
func ExtractActor(r *http.Request) (model.Actor, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderActorID))
	if id == "" {
		return model.Actor{}, apperrors.Unauthorized("Missing " + HeaderActorID + " header")
	}

	role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderActorRole)))
	if role == "" {
		role = model.RoleClient
	}
	switch role {
	case model.RoleClient, model.RoleStaff, model.RoleAdmin:
	default:
		return model.Actor{}, apperrors.Unauthorized("Unknown actor role: " + role)
	}

	verified := strings.EqualFold(strings.TrimSpace(r.Header.Get(HeaderActorVerified)), "true")

	return model.Actor{ID: id, Role: role, Verified: verified}, nil
}
