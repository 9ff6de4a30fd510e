package session

// The session core is agnostic to the concrete HTTP request and response
// shapes. It only needs "get a named value" from inbound requests and
// "set or delete a named value with attributes" on outbound responses.

// Request supplies named values (cookies or headers) from an inbound
// request.
type Request interface {
	// Get returns the named value, or "" when absent.
	Get(name string) string
}

// Response consumes named values for an outbound response.
type Response interface {
	// Set writes the named value with the given attributes.
	Set(name, value string, opts CookieOptions)

	// Delete removes the named value.
	Delete(name string, opts CookieOptions)
}

// CookieOptions are the attributes applied when writing a session value.
type CookieOptions struct {
	Path     string
	MaxAge   int
	HTTPOnly bool
	Secure   bool
	SameSite string
}
