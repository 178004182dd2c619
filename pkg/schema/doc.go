// Package schema models a self-describing settings form. A ConfigSchema is an
// ordered list of fields addressed by dotted paths; each field holds a tagged
// Value and optional FieldMetadata describing its widget type, constraints and
// the hideWhen/disableWhen conditions evaluated by the visibility package.
//
// Model is the live, mutable instance of a schema. Writes go through
// Model.SetValue, which follows accept-and-flag semantics: type mismatches and
// constraint failures are returned as errors but the value is still stored so
// interactive forms can show invalid intermediate input. Use Applied to tell
// those recoverable errors apart from rejected calls.
package schema
