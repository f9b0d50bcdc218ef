// Package policy provides intent validators: structural checks, deny lists,
// and a combinator that runs several in order.
package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
)

// AllowAll accepts every intent.
var AllowAll = ports.IntentValidatorFunc(func(context.Context, domain.Intent) (domain.Verdict, error) {
	return domain.Accept(), nil
})

// StructValidator rejects intents whose fields break the struct tags on domain.Intent.
type StructValidator struct {
	validate *validator.Validate
}

// NewStructValidator creates a StructValidator.
func NewStructValidator() *StructValidator {
	return &StructValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateIntent checks intent's fields.
func (v *StructValidator) ValidateIntent(_ context.Context, intent domain.Intent) (domain.Verdict, error) {
	err := v.validate.Struct(intent)
	if err == nil {
		return domain.Accept(), nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Verdict{}, err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return domain.Reject("malformed intent: " + strings.Join(msgs, ", ")), nil
}

// DenyList rejects spawns into listed categories or category/subtype pairs.
// Dissolves are never denied so a listed worker can still be cleaned up.
type DenyList struct {
	mu      sync.RWMutex
	entries map[string]struct{}
}

// NewDenyList creates a deny list from entries of the form "category" or
// "category/subtype". Blank entries are ignored.
func NewDenyList(entries ...string) *DenyList {
	d := &DenyList{entries: make(map[string]struct{})}
	d.Set(entries)
	return d
}

// Set replaces the list.
func (d *DenyList) Set(entries []string) {
	m := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e != "" {
			m[e] = struct{}{}
		}
	}
	d.mu.Lock()
	d.entries = m
	d.mu.Unlock()
}

// Denies reports whether a spawn of category/subtype would be refused.
func (d *DenyList) Denies(category, subtype string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.entries[category]; ok {
		return true
	}
	_, ok := d.entries[category+"/"+subtype]
	return ok
}

// ValidateIntent rejects denied spawns.
func (d *DenyList) ValidateIntent(_ context.Context, intent domain.Intent) (domain.Verdict, error) {
	if intent.Action == domain.ActionSpawn && d.Denies(intent.Category, intent.Subtype) {
		return domain.Reject(fmt.Sprintf("%s/%s is denied", intent.Category, intent.Subtype)), nil
	}
	return domain.Accept(), nil
}

// Chain runs validators in order and returns the first rejection or error.
type Chain []ports.IntentValidator

// ValidateIntent accepts only if every validator accepts.
func (c Chain) ValidateIntent(ctx context.Context, intent domain.Intent) (domain.Verdict, error) {
	for _, v := range c {
		if v == nil {
			continue
		}
		verdict, err := v.ValidateIntent(ctx, intent)
		if err != nil || !verdict.Accepted {
			return verdict, err
		}
	}
	return domain.Accept(), nil
}

var (
	_ ports.IntentValidator = (*StructValidator)(nil)
	_ ports.IntentValidator = (*DenyList)(nil)
	_ ports.IntentValidator = Chain(nil)
)
