package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MaxSlugLength bounds a slug so it stays a valid mailbox local part.
const MaxSlugLength = 63

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)
	slugStripChar = regexp.MustCompile(`[^a-z0-9-]`)
)

// Tenant is an isolated customer workspace.
// Its slug is the namespace key for all vector storage and the local part
// of its helpdesk mailbox.
type Tenant struct {
	// ID is the unique identifier for the tenant.
	ID string

	// Slug is the namespace key. Lowercase alphanumerics and hyphens.
	Slug string

	// Name is the display name used in reply prompts.
	Name string

	// Website is the organisation website, if any.
	Website string

	// AcceptedSenders restricts which addresses may trigger a reply.
	// An empty list accepts every sender.
	AcceptedSenders []string

	// CreatedAt is when the tenant was created.
	CreatedAt time.Time

	// UpdatedAt is when the tenant was last changed.
	UpdatedAt time.Time
}

// ValidateSlug checks the slug format.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: slug is required", ErrBadRequest)
	}
	if len(slug) > MaxSlugLength {
		return fmt.Errorf("%w: slug exceeds %d characters", ErrBadRequest, MaxSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: slug %q must contain only lowercase letters, digits and hyphens",
			ErrBadRequest, slug)
	}
	return nil
}

// NormaliseSlug lowercases input and strips characters a slug cannot hold.
func NormaliseSlug(s string) string {
	return slugStripChar.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// NormaliseAddress lowercases and trims an email address for comparison.
func NormaliseAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// AcceptsSender reports whether addr may trigger a reply for this tenant.
func (t *Tenant) AcceptsSender(addr string) bool {
	if len(t.AcceptedSenders) == 0 {
		return true
	}
	sender := NormaliseAddress(addr)
	if sender == "" {
		return false
	}
	for _, accepted := range t.AcceptedSenders {
		if NormaliseAddress(accepted) == sender {
			return true
		}
	}
	return false
}

// Mailbox returns the helpdesk address for the tenant on the given domain.
func (t *Tenant) Mailbox(helpdeskDomain string) string {
	return MailboxAddress(t.Slug, helpdeskDomain)
}

// MailboxAddress builds "{slug}@{domain}".
func MailboxAddress(slug, helpdeskDomain string) string {
	return slug + "@" + helpdeskDomain
}

// SlugFromAddress extracts the local part of a mailbox address.
// Display names ("Acme <acme@x>") are tolerated.
func SlugFromAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.TrimSuffix(addr[i+1:], ">")
	}
	local, _, found := strings.Cut(addr, "@")
	if !found {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(local))
}

// PersonalSlug derives the slug of the personal workspace created for a new user.
func PersonalSlug(userID string) string {
	id := NormaliseSlug(userID)
	if len(id) > 8 {
		id = id[:8]
	}
	return "personal-" + id
}
