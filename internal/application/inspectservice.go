package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

// InspectService dumps directory records without modifying them.
type InspectService struct {
	users  *UserService
	groups *GroupService
	out    io.Writer
}

// NewInspectService creates an InspectService that writes to out.
func NewInspectService(users *UserService, groups *GroupService, out io.Writer) *InspectService {
	return &InspectService{users: users, groups: groups, out: out}
}

// Inspect writes each requested user and group as indented JSON under a
// header line. Fetch failures are logged and counted; the returned error is
// reserved for write failures on the output.
func (s *InspectService) Inspect(ctx context.Context, users, groups []string) (int, error) {
	failed := 0

	for _, email := range users {
		if _, err := fmt.Fprintf(s.out, "\n--- User: %s ---\n", email); err != nil {
			return failed, fmt.Errorf("write output: %w", err)
		}
		user, err := s.users.Fetch(ctx, email)
		if err != nil {
			failed++
			continue
		}
		if err := s.writeJSON(user); err != nil {
			return failed, err
		}
	}

	for _, email := range groups {
		if _, err := fmt.Fprintf(s.out, "\n--- Group: %s ---\n", email); err != nil {
			return failed, fmt.Errorf("write output: %w", err)
		}
		group, err := s.groups.Fetch(ctx, email)
		if err != nil {
			failed++
			continue
		}
		if err := s.writeJSON(group); err != nil {
			return failed, err
		}
	}

	return failed, nil
}

// WriteHistory writes a short listing of recent runs.
func (s *InspectService) WriteHistory(runs []model.RunSummary) error {
	if _, err := fmt.Fprintf(s.out, "\n--- Recent runs (%d) ---\n", len(runs)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	for _, run := range runs {
		_, err := fmt.Fprintf(s.out, "#%d %s %s  succeeded=%d failed=%d\n",
			run.ID, run.Mode, run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Succeeded, run.Failed)
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		for _, res := range run.Results {
			if res.Success {
				continue
			}
			if _, err := fmt.Fprintf(s.out, "    %s %s: %s (%s)\n", res.Kind, res.Identifier, res.Cause, res.Reason); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
	}
	return nil
}

func (s *InspectService) writeJSON(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
