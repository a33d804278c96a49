package domain

import (
	"regexp"
	"strings"
)

// Session is the projection of one ECS exec session over the session-start and
// log-delivered event streams, keyed by SessionID.
type Session struct {
	ID        string `json:"session_id"`
	Initiator string `json:"initiator,omitempty"` // principal ARN
	TaskArn   string `json:"task_arn,omitempty"`  // target task
	Cluster   string `json:"cluster,omitempty"`   // target cluster
}

// Evidence is one artifact attached to a trail.
type Evidence struct {
	Name     string         `json:"name"`
	Files    []string       `json:"files,omitempty"`
	UserData map[string]any `json:"user_data,omitempty"`
}

// UserIdentityDocument is written to user-identity.json.
type UserIdentityDocument struct {
	RoleArn string `json:"role_arn"`
}

// ServiceIdentityDocument is written to service-identity.json.
type ServiceIdentityDocument struct {
	ServiceIdentity string `json:"service_identity"`
}

var trailNameInvalid = regexp.MustCompile(`[^A-Za-z0-9_.~-]+`)

// TrailName turns a container key (session id or principal ARN) into a
// name the attestation service accepts: it must start with an alphanumeric
// and may only contain letters, digits, '.', '_', '~' and '-'. The result is
// empty when key has no valid character.
func TrailName(key string) string {
	name := trailNameInvalid.ReplaceAllString(key, "-")
	return strings.TrimLeft(name, "_.~-")
}

// TrailTemplate describes the evidence a trail is expected to collect.
type TrailTemplate struct {
	Description  string
	Attestations []string
}
