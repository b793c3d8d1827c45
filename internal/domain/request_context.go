package domain

// RequestContext carries tenant and caller identity explicitly through every call chain.
// It is built once per request by the transport layer (or per command by the Kafka consumer).
type RequestContext struct {
	Tenant    string
	UserID    string
	Token     string
	RequestID string
	// BaseURL is the gateway endpoint remote collaborators are reached through.
	BaseURL string
	Lang    string
}

// HasIdentity reports whether the caller identity is known.
func (rc RequestContext) HasIdentity() bool {
	return rc.UserID != ""
}
