// Package slug turns titles into URL-safe identifiers that are unique within
// a collection.
package slug

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrEmptyTitle is returned when the title is empty or whitespace only.
	ErrEmptyTitle = errors.New("title is required")
	// ErrEmptySlug is returned when nothing of the title survives normalization.
	ErrEmptySlug = errors.New("title must contain at least one letter or digit")
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9 -]`)
	spaces     = regexp.MustCompile(`\s+`)
	hyphens    = regexp.MustCompile(`-+`)
	valid      = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// IsValidation reports whether err is a title validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyTitle) || errors.Is(err, ErrEmptySlug)
}

// Normalize lowercases title, drops everything outside [a-z0-9 -], turns
// whitespace runs into a hyphen, collapses hyphen runs and trims hyphens at
// both ends. Non-ASCII letters are removed, not transliterated.
func Normalize(title string) string {
	s := strings.ToLower(title)
	s = disallowed.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.TrimFunc(s, func(r rune) bool { return r == '-' })
}

// IsValid reports whether s has the shape Normalize produces.
func IsValid(s string) bool {
	return valid.MatchString(s)
}

// Checker answers whether a slug is already used in a collection. excludeID
// is the id of the record being updated, or 0 on create.
type Checker interface {
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
}

// ExistsFunc adapts a function to Checker.
type ExistsFunc func(ctx context.Context, slug string, excludeID uint) (bool, error)

func (f ExistsFunc) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	return f(ctx, slug, excludeID)
}

// Resolver picks unique slugs for one collection.
type Resolver struct {
	checker Checker
}

func NewResolver(checker Checker) *Resolver {
	return &Resolver{checker: checker}
}

// Resolve returns the normalized title if it is free, otherwise the first
// free candidate of base-1, base-2, ... Checker errors are returned as is.
//
// The result is only a pre-check. Callers must still rely on a unique index
// to settle concurrent writers.
func (r *Resolver) Resolve(ctx context.Context, title string, excludeID uint) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", ErrEmptyTitle
	}
	base := Normalize(title)
	if base == "" {
		return "", ErrEmptySlug
	}

	candidate := base
	for n := 1; ; n++ {
		taken, err := r.checker.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}
