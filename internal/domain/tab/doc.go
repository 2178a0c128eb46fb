// Package tab defines the contract for native browser views and an in-memory
// implementation of it.
//
// View ids are opaque strings owned by the view host. The orchestration layer
// never stores View handles; it looks them up through Service for every
// operation so a view closed in between is reported as ErrNotFound rather
// than used after free.
package tab
