// Package expr parses compact condition rules and compares condition values.
//
// A rule is a conjunction of equality clauses:
//
//	server.auth.enabled == false
//	engine.kind == "piper" && engine.piper.useGPU == true
//
// Literals may be quoted strings, numbers, true/false or null; bare words on
// the right-hand side are read as strings. Only `==` and `&&` are accepted
// because conditions are plain conjunctions of equality predicates.
package expr
