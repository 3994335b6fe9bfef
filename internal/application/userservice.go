package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

// UserService reads directory users and rewrites their POSIX account.
type UserService struct {
	client driven.DirectoryClient
}

// NewUserService creates a UserService backed by client.
func NewUserService(client driven.DirectoryClient) *UserService {
	return &UserService{client: client}
}

// Fetch returns the full record for the user identified by email.
func (s *UserService) Fetch(ctx context.Context, email string) (model.UserRecord, error) {
	user, err := s.client.FetchUser(ctx, email)
	if err != nil {
		logFetchError(model.ResourceUser, email, err)
		return nil, fmt.Errorf("fetch user %s: %w", email, err)
	}
	return user, nil
}

// Update replaces the user's POSIX accounts with the single entry described
// by target, then re-reads the user to verify the write.
func (s *UserService) Update(ctx context.Context, target model.UserTarget) model.UpdateResult {
	res := model.UpdateResult{
		Kind:       model.ResourceUser,
		Identifier: target.Email,
		State:      model.StateIdle,
	}

	advance(&res, model.StateFetching)
	slog.Info("fetching user", "user", target.Email)
	current, err := s.Fetch(ctx, target.Email)
	if err != nil {
		return fail(res, model.StateFetchFailed, model.CauseFetchFailed, err)
	}
	advance(&res, model.StateFetched)

	advance(&res, model.StateTransforming)
	payload, entry := BuildUserPayload(current, target)
	slog.Info("prepared posix account",
		"user", target.Email,
		"username", entry.Username,
		"uid", entry.UID,
		"gid", entry.GID,
		"home", entry.HomeDirectory,
		"shell", entry.Shell,
		"gecos", entry.Gecos,
	)

	advance(&res, model.StateSubmitting)
	if _, err := s.client.UpdateUser(ctx, target.Email, payload); err != nil {
		return submitFailed(res, err)
	}
	res.Submitted = true
	advance(&res, model.StateSubmitted)
	slog.Info("user update submitted", "user", target.Email)

	return s.verify(ctx, res, entry)
}

func (s *UserService) verify(ctx context.Context, res model.UpdateResult, want model.PosixAccount) model.UpdateResult {
	advance(&res, model.StateVerifying)

	fresh, err := s.Fetch(ctx, res.Identifier)
	if err != nil {
		return fail(res, model.StateVerifyFailed, model.CauseVerifyFailed, fmt.Errorf("verify: %w", err))
	}
	accounts, present, err := fresh.PosixAccounts()
	if err != nil {
		return fail(res, model.StateVerifyFailed, model.CauseVerifyFailed, fmt.Errorf("verify: %w", err))
	}
	if !present {
		return fail(res, model.StateVerifyFailed, model.CauseVerifyFailed,
			errors.New("verify: posixAccounts missing from updated user"))
	}

	if pretty, err := json.MarshalIndent(accounts, "", "  "); err == nil {
		slog.Info("verified posix accounts", "user", res.Identifier, "posix_accounts", string(pretty))
	}
	if len(accounts) != 1 || !accounts[0].Matches(want) {
		res.Warning = fmt.Sprintf("stored posix accounts differ from submitted entry (%d accounts)", len(accounts))
		slog.Warn("posix account mismatch after update",
			"user", res.Identifier,
			"accounts", len(accounts),
			"want_uid", want.UID,
			"want_gid", want.GID,
		)
	}

	advance(&res, model.StateVerified)
	res.Success = true
	slog.Info("user updated", "user", res.Identifier)
	return res
}

// BuildUserPayload derives the update body for a user from its current
// record. The current record is left untouched. The returned body carries
// exactly one POSIX account, never carries server-owned fields, and always
// has a primaryEmail.
func BuildUserPayload(current model.UserRecord, target model.UserTarget) (model.UserRecord, model.PosixAccount) {
	gecos, ok := current.FullName()
	if !ok {
		gecos = model.LocalPart(target.Email)
	}

	entry := model.PosixAccount{
		Username:            model.LocalPart(target.Email),
		UID:                 target.UID,
		GID:                 target.GID,
		HomeDirectory:       target.HomeDirectory,
		Shell:               target.Shell,
		Gecos:               gecos,
		Primary:             true,
		SystemID:            "",
		OperatingSystemType: model.OperatingSystemUnspecified,
	}

	payload := current.Clone()
	if payload == nil {
		payload = model.UserRecord{}
	}
	payload[model.UserFieldPosixAccounts] = []model.PosixAccount{entry}
	payload.StripServerOwned()
	if email, ok := payload[model.UserFieldPrimaryEmail].(string); !ok || email == "" {
		payload[model.UserFieldPrimaryEmail] = target.Email
	}
	return payload, entry
}
