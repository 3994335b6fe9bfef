package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

// LoadTargets reads the targets file at path. The file has three optional
// top-level sections:
//
//	users:
//	  alice@example.com:
//	    uid: "1001"
//	    gid: "2001"
//	    homeDirectory: /home/alice
//	    shell: /bin/bash
//	groups:
//	  admins@example.com: "2001"
//	inspect:
//	  users: [restricted@example.com]
//	  groups: [auditors@example.com]
//
// inspect names principals for posixinspect only and carries no attributes.
// Principals keep the order they are written in.
func LoadTargets(path string) (model.Targets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Targets{}, fmt.Errorf("read targets file: %w", err)
	}
	targets, err := ParseTargets(data)
	if err != nil {
		return model.Targets{}, fmt.Errorf("targets file %s: %w", path, err)
	}
	return targets, nil
}

// ParseTargets parses targets YAML. It walks the node tree rather than
// decoding into maps so declaration order survives.
func ParseTargets(data []byte) (model.Targets, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.Targets{}, fmt.Errorf("parse yaml: %w", err)
	}

	var targets model.Targets
	if len(doc.Content) == 0 {
		return targets, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return targets, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if seen[key.Value] {
			return model.Targets{}, fmt.Errorf("line %d: duplicate section %q", key.Line, key.Value)
		}
		seen[key.Value] = true

		switch key.Value {
		case "users":
			users, err := parseUsers(value)
			if err != nil {
				return model.Targets{}, err
			}
			targets.Users = users
		case "groups":
			groups, err := parseGroups(value)
			if err != nil {
				return model.Targets{}, err
			}
			targets.Groups = groups
		case "inspect":
			inspect, err := parseInspect(value)
			if err != nil {
				return model.Targets{}, err
			}
			targets.Inspect = inspect
		default:
			return model.Targets{}, fmt.Errorf("line %d: unknown section %q", key.Line, key.Value)
		}
	}

	return targets, nil
}

type userAttrs struct {
	UID           string `yaml:"uid"`
	GID           string `yaml:"gid"`
	HomeDirectory string `yaml:"homeDirectory"`
	Shell         string `yaml:"shell"`
}

var userFields = map[string]bool{"uid": true, "gid": true, "homeDirectory": true, "shell": true}

func parseUsers(node *yaml.Node) ([]model.UserTarget, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: users must be a mapping of email to attributes", node.Line)
	}

	seen := make(map[string]bool)
	var users []model.UserTarget
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		email := key.Value
		if err := checkPrincipal(email, key.Line, seen); err != nil {
			return nil, err
		}

		if value.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: user %s: attributes must be a mapping", value.Line, email)
		}
		for j := 0; j+1 < len(value.Content); j += 2 {
			if field := value.Content[j]; !userFields[field.Value] {
				return nil, fmt.Errorf("line %d: user %s: unknown attribute %q", field.Line, email, field.Value)
			}
		}

		var attrs userAttrs
		if err := value.Decode(&attrs); err != nil {
			return nil, fmt.Errorf("user %s: %w", email, err)
		}

		target := model.UserTarget{
			Email:         email,
			UID:           attrs.UID,
			GID:           attrs.GID,
			HomeDirectory: attrs.HomeDirectory,
			Shell:         attrs.Shell,
		}
		if err := validateUser(target); err != nil {
			return nil, fmt.Errorf("line %d: user %s: %w", key.Line, email, err)
		}
		users = append(users, target)
	}
	return users, nil
}

func parseGroups(node *yaml.Node) ([]model.GroupTarget, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: groups must be a mapping of email to gid", node.Line)
	}

	seen := make(map[string]bool)
	var groups []model.GroupTarget
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		email := key.Value
		if err := checkPrincipal(email, key.Line, seen); err != nil {
			return nil, err
		}
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: group %s: gid must be a scalar", value.Line, email)
		}
		if err := validateID(value.Value); err != nil {
			return nil, fmt.Errorf("line %d: group %s: gid %w", value.Line, email, err)
		}
		groups = append(groups, model.GroupTarget{Email: email, GID: value.Value})
	}
	return groups, nil
}

func parseInspect(node *yaml.Node) (model.Principals, error) {
	var p model.Principals
	if isNull(node) {
		return p, nil
	}
	if node.Kind != yaml.MappingNode {
		return p, fmt.Errorf("line %d: inspect must be a mapping with users and groups lists", node.Line)
	}

	seenKeys := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if seenKeys[key.Value] {
			return p, fmt.Errorf("line %d: inspect: duplicate key %q", key.Line, key.Value)
		}
		seenKeys[key.Value] = true

		emails, err := parseEmailList(key.Value, value)
		if err != nil {
			return p, err
		}
		switch key.Value {
		case "users":
			p.Users = emails
		case "groups":
			p.Groups = emails
		default:
			return p, fmt.Errorf("line %d: inspect: unknown key %q", key.Line, key.Value)
		}
	}
	return p, nil
}

func parseEmailList(name string, node *yaml.Node) ([]string, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: inspect %s must be a list of emails", node.Line, name)
	}
	seen := make(map[string]bool)
	emails := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: inspect %s: entries must be emails", item.Line, name)
		}
		if err := checkPrincipal(item.Value, item.Line, seen); err != nil {
			return nil, err
		}
		emails = append(emails, item.Value)
	}
	return emails, nil
}

func checkPrincipal(email string, line int, seen map[string]bool) error {
	if email == "" {
		return fmt.Errorf("line %d: empty principal", line)
	}
	if seen[email] {
		return fmt.Errorf("line %d: duplicate principal %s", line, email)
	}
	seen[email] = true
	return nil
}

func validateUser(u model.UserTarget) error {
	if err := validateID(u.UID); err != nil {
		return fmt.Errorf("uid %w", err)
	}
	if err := validateID(u.GID); err != nil {
		return fmt.Errorf("gid %w", err)
	}
	if u.HomeDirectory == "" {
		return errors.New("homeDirectory is required")
	}
	if u.Shell == "" {
		return errors.New("shell is required")
	}
	return nil
}

// validateID checks that v is an unsigned decimal integer.
func validateID(v string) error {
	if v == "" {
		return errors.New("is required")
	}
	if _, err := strconv.ParseUint(v, 10, 64); err != nil {
		return fmt.Errorf("%q is not an unsigned integer", v)
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}
