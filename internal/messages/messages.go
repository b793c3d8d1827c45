// Package messages holds the user-facing error strings returned by the API, per language.
package messages

import (
	"fmt"
	"regexp"
	"strings"
)

// Key identifies a message.
type Key string

// DefaultLang is used when the requested language has no catalog or no entry.
const DefaultLang = "en"

// ─── Request context ─────────────────────────────────────────────────────────

const (
	NoTenant        Key = "no_tenant"
	NoUserID        Key = "no_user_id"
	NoIdentity      Key = "no_identity"
	InvalidLang     Key = "invalid_lang"
	InvalidToken    Key = "invalid_token"
	InternalError   Key = "internal_error"
	InvalidBody     Key = "invalid_body"
	InvalidPaging   Key = "invalid_paging"
	InvalidOlderDay Key = "invalid_older_than"
)

// ─── Notifications ───────────────────────────────────────────────────────────

const (
	RecipientRequired  Key = "recipient_required"
	InvalidUUID        Key = "invalid_uuid"
	DuplicateID        Key = "duplicate_id"
	CannotChangeID     Key = "cannot_change_id"
	NotificationAbsent Key = "notification_not_found"
	NothingToDelete    Key = "nothing_to_delete"
	TemplateRequired   Key = "template_required"
	InvalidQuery       Key = "invalid_query"
)

var catalogs = map[string]map[Key]string{
	"en": en,
	"vi": vi,
}

var langPattern = regexp.MustCompile(`^[a-zA-Z]{2}$`)

// ValidLang reports whether lang is a two-letter language code.
func ValidLang(lang string) bool {
	return langPattern.MatchString(lang)
}

// Get returns the message for key in lang, formatted with args.
func Get(lang string, key Key, args ...any) string {
	msg, ok := catalogs[strings.ToLower(lang)][key]
	if !ok {
		msg, ok = en[key]
	}
	if !ok {
		return string(key)
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
