package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

// GroupService reads directory groups and patches their gid.
type GroupService struct {
	client driven.DirectoryClient
}

// NewGroupService creates a GroupService backed by client.
func NewGroupService(client driven.DirectoryClient) *GroupService {
	return &GroupService{client: client}
}

// Fetch returns the record for the group identified by email.
func (s *GroupService) Fetch(ctx context.Context, email string) (model.GroupRecord, error) {
	group, err := s.client.FetchGroup(ctx, email)
	if err != nil {
		logFetchError(model.ResourceGroup, email, err)
		return nil, fmt.Errorf("fetch group %s: %w", email, err)
	}
	return group, nil
}

// Update patches the group's gid and re-reads the group. A gid that differs
// from target after a successful patch is reported as a warning only.
func (s *GroupService) Update(ctx context.Context, target model.GroupTarget) model.UpdateResult {
	res := model.UpdateResult{
		Kind:       model.ResourceGroup,
		Identifier: target.Email,
		State:      model.StateIdle,
	}

	advance(&res, model.StateFetching)
	slog.Info("fetching group", "group", target.Email)
	current, err := s.Fetch(ctx, target.Email)
	if err != nil {
		return fail(res, model.StateFetchFailed, model.CauseFetchFailed, err)
	}
	advance(&res, model.StateFetched)

	advance(&res, model.StateTransforming)
	if gid, ok := current.GID(); ok {
		slog.Info("current group gid", "group", target.Email, "gid", gid)
	}
	body := map[string]any{model.GroupFieldGID: target.GID}

	advance(&res, model.StateSubmitting)
	slog.Info("patching group gid", "group", target.Email, "gid", target.GID)
	if _, err := s.client.PatchGroup(ctx, target.Email, body); err != nil {
		return submitFailed(res, err)
	}
	res.Submitted = true
	advance(&res, model.StateSubmitted)

	advance(&res, model.StateVerifying)
	fresh, err := s.Fetch(ctx, target.Email)
	if err != nil {
		return fail(res, model.StateVerifyFailed, model.CauseVerifyFailed, fmt.Errorf("verify: %w", err))
	}
	gid, ok := fresh.GID()
	if !ok {
		return fail(res, model.StateVerifyFailed, model.CauseVerifyFailed,
			errors.New("verify: gid missing from updated group"))
	}
	if gid != target.GID {
		res.Warning = fmt.Sprintf("gid is %s after patch, expected %s", gid, target.GID)
		slog.Warn("group gid mismatch after update",
			"group", target.Email,
			"expected", target.GID,
			"actual", gid,
		)
	}

	advance(&res, model.StateVerified)
	res.Success = true
	slog.Info("group updated", "group", target.Email, "gid", gid)
	return res
}
