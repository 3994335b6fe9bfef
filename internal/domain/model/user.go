package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Field names of the directory user resource that the update path touches.
const (
	UserFieldPrimaryEmail  = "primaryEmail"
	UserFieldName          = "name"
	UserFieldFullName      = "fullName"
	UserFieldPosixAccounts = "posixAccounts"
)

// OperatingSystemUnspecified is the operatingSystemType written on new entries.
const OperatingSystemUnspecified = "unspecified"

// ServerOwnedUserFields lists user attributes the API manages itself. They are
// removed from a fetched record before it is sent back as an update body.
// The list is fixed: a read-only field added to the API later is not stripped.
var ServerOwnedUserFields = []string{
	"kind",
	"etag",
	"id",
	"lastLoginTime",
	"creationTime",
	"deletionTime",
	"isMailboxSetup",
	"isAdmin",
	"isDelegatedAdmin",
	"agreedToTerms",
	"isEnforcedIn2Sv",
	"isEnrolledIn2Sv",
	"customerId",
	"orgUnitPath",
	"emails",
	"aliases",
	"nonEditableAliases",
	"suspended",
	"suspensionReason",
	"changePasswordAtNextLogin",
	"ipWhitelisted",
}

// PosixAccount is one UNIX login identity attached to a directory user.
type PosixAccount struct {
	Username            string `json:"username"`
	UID                 string `json:"uid"`
	GID                 string `json:"gid"`
	HomeDirectory       string `json:"homeDirectory"`
	Shell               string `json:"shell"`
	Gecos               string `json:"gecos"`
	Primary             bool   `json:"primary"`
	SystemID            string `json:"systemId"`
	OperatingSystemType string `json:"operatingSystemType"`
}

// Matches reports whether a carries the login attributes of want.
func (a PosixAccount) Matches(want PosixAccount) bool {
	return a.UID == want.UID &&
		a.GID == want.GID &&
		a.HomeDirectory == want.HomeDirectory &&
		a.Shell == want.Shell
}

// UserRecord is the full JSON representation of a directory user. It stays a
// map so fields this tool does not model survive a read-modify-write cycle.
type UserRecord map[string]any

// Clone returns a shallow copy; nested values are shared.
func (r UserRecord) Clone() UserRecord {
	return maps.Clone(r)
}

// FullName returns name.fullName when the record has a non-empty one.
func (r UserRecord) FullName() (string, bool) {
	name, ok := r[UserFieldName].(map[string]any)
	if !ok {
		return "", false
	}
	full, ok := name[UserFieldFullName].(string)
	if !ok || full == "" {
		return "", false
	}
	return full, true
}

// PosixAccounts decodes the posixAccounts list. The boolean is false when the
// record has no such field.
func (r UserRecord) PosixAccounts() ([]PosixAccount, bool, error) {
	raw, ok := r[UserFieldPosixAccounts]
	if !ok || raw == nil {
		return nil, false, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, true, fmt.Errorf("encode posix accounts: %w", err)
	}
	var accounts []PosixAccount
	if err := json.Unmarshal(b, &accounts); err != nil {
		return nil, true, fmt.Errorf("decode posix accounts: %w", err)
	}
	return accounts, true, nil
}

// StripServerOwned deletes every ServerOwnedUserFields entry in place.
func (r UserRecord) StripServerOwned() {
	for _, field := range ServerOwnedUserFields {
		delete(r, field)
	}
}

// LocalPart returns the part of an email address before the '@'.
func LocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
