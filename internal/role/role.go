// AngelaMos | 2026
// role.go

// Package role defines the fixed moderation role hierarchy. Ordinals are
// dense (0..3) and define the promotion order: Banned < User < Admin <
// Manager. Manager is terminal.
package role

import (
	"errors"
	"fmt"
	"strings"
)

type Type int

const (
	Banned Type = iota
	User
	Admin
	Manager
)

var ErrInvalidHierarchy = errors.New("invalid hierarchy position")

type Role struct {
	Type Type   `json:"role_type"`
	Name string `json:"role_name"`
}

var hierarchy = [...]Role{
	{Type: Banned, Name: "Banned"},
	{Type: User, Name: "User"},
	{Type: Admin, Name: "Admin"},
	{Type: Manager, Name: "Manager"},
}

func (t Type) Valid() bool {
	return t >= Banned && t <= Manager
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return hierarchy[t].Name
}

// List returns every role in ascending ordinal order.
func List() []Role {
	out := make([]Role, len(hierarchy))
	copy(out, hierarchy[:])
	return out
}

func Lookup(t Type) (Role, error) {
	if !t.Valid() {
		return Role{}, fmt.Errorf("lookup role %d: %w", int(t), ErrInvalidHierarchy)
	}
	return hierarchy[t], nil
}

func NameOf(t Type) (string, error) {
	r, err := Lookup(t)
	if err != nil {
		return "", err
	}
	return r.Name, nil
}

// Next returns the role one step above current. There is no role above
// Manager and unknown ordinals are rejected rather than clamped.
func Next(current Type) (Role, error) {
	if !current.Valid() {
		return Role{}, fmt.Errorf("next role after %d: %w", int(current), ErrInvalidHierarchy)
	}
	if current == Manager {
		return Role{}, fmt.Errorf("next role after %s: %w", current, ErrInvalidHierarchy)
	}
	return hierarchy[current+1], nil
}

// Highest returns the maximum-ordinal role; a user with no roles is Banned.
func Highest(roles []Role) Role {
	top := hierarchy[Banned]
	for _, r := range roles {
		if r.Type.Valid() && r.Type > top.Type {
			top = hierarchy[r.Type]
		}
	}
	return top
}

func Parse(name string) (Role, error) {
	for _, r := range hierarchy {
		if strings.EqualFold(r.Name, strings.TrimSpace(name)) {
			return r, nil
		}
	}
	return Role{}, fmt.Errorf("parse role %q: %w", name, ErrInvalidHierarchy)
}

func IsModerator(t Type) bool {
	return t == Admin || t == Manager
}
