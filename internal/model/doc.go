// Package model contains the shared interfaces and data structures.
//
// # Criteria for adding a type to this package
//
// This package should contain important interfaces that are shared
// by several packages within the codebase, with the objective of
// separating unrelated pieces of code and making unit testing easier.
//
// In general, this package should not contain logic, unless
// this logic is strictly related to data structures and we
// cannot implement this logic elsewhere.
//
// # Content of this package
//
// - logger.go: generic definition of an apex/log compatible logger;
//
// - netx.go: network extension interfaces (dialers, resolvers, TLS
// handshakers, and tagged connections);
//
// - stage.go: the contract implemented by every step of a
// connection-establishment pipeline.
package model
