package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

// ParsePrincipals reads posixinspect's positional arguments. Each argument is
// user:EMAIL or group:EMAIL; order is kept and repeats are dropped.
func ParsePrincipals(args []string) (model.Principals, error) {
	var p model.Principals
	for _, arg := range args {
		kind, email, ok := strings.Cut(arg, ":")
		if !ok || email == "" {
			return model.Principals{}, fmt.Errorf("argument %q: expected user:EMAIL or group:EMAIL", arg)
		}
		switch kind {
		case "user":
			if !slices.Contains(p.Users, email) {
				p.Users = append(p.Users, email)
			}
		case "group":
			if !slices.Contains(p.Groups, email) {
				p.Groups = append(p.Groups, email)
			}
		default:
			return model.Principals{}, fmt.Errorf("argument %q: unknown kind %q", arg, kind)
		}
	}
	return p, nil
}
