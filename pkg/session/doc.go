// Package session manages the lifecycle of authenticated sessions:
// creation, lookup, sliding-window renewal, destruction, and deduplicated
// refresh of upstream OAuth tokens.
//
// Two interchangeable strategies implement the Strategy interface,
// selected once at configuration time:
//
//   - JWTStrategy encodes the whole session into a signed, self-verifying
//     token with no server-side record.
//   - StoreStrategy keeps the session behind an opaque random token whose
//     authoritative data lives in a persistence Adapter.
//
// "No valid session" is an expected, frequent outcome; lookups report it
// as (nil, nil), never as an error. Upstream refresh failures are
// likewise captured as data in RefreshResult so a failed refresh degrades
// a session rather than destroying it.
package session
