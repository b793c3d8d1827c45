package messages

var en = map[Key]string{
	// ─── Request context ─────────────────────────────────────────────────────
	NoTenant:        "Tenant must be set",
	NoUserID:        "No UserId",
	NoIdentity:      "No identity",
	InvalidLang:     "Invalid lang %q: expected a two-letter language code",
	InvalidToken:    "Invalid token",
	InternalError:   "Internal server error, contact administrator",
	InvalidBody:     "Invalid request body: %s",
	InvalidPaging:   "%s must be between %d and %d",
	InvalidOlderDay: "Invalid olderthan date %q: expected YYYY-MM-DD",

	// ─── Notifications ───────────────────────────────────────────────────────
	RecipientRequired:  "recipientId is required",
	InvalidUUID:        "Invalid UUID %q",
	DuplicateID:        "duplicate id",
	CannotChangeID:     "cannot change id",
	NotificationAbsent: "Notification %s not found",
	NothingToDelete:    "No notifications to delete",
	TemplateRequired:   "templateId is required",
	InvalidQuery:       "Invalid query: %s",
}
