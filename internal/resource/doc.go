// Package resource composes CRUD operations for stored entities from an
// explicitly declared set of traits.
//
// A Descriptor is created with Define and then configured at registration
// time: its parent relation (ChildOf), a distinct update payload
// (WithPatch), a projected output (WithOutput), relations to preload
// (EagerLoad) and referenced entities that must belong to the caller
// (References). Operations only ever consult these declarations; entity
// fields are never inspected at runtime.
//
// Every operation receives the authenticated tenant and the request path
// parameters. Ownership is checked twice: the parent named in the path
// must belong to the tenant, and the stored row must belong to that parent.
package resource
