// Package netxlite contains the networking building blocks of the
// connection-establishment pipeline: dialers, resolvers, and TLS
// handshakers, each decorated with logging and error wrapping.
//
// Every error returned by this package is an *ErrWrapper whose
// Failure field is one of the FailureXXX strings (or an
// unknown_failure string) and whose Operation field names the
// major operation that failed.
//
// The decorators are layered in this order, from the outside:
//
// - logging;
//
// - resolution (for dialers), IDNA and short-circuiting of IP
// addresses (for resolvers);
//
// - error wrapping;
//
// - the actual implementation (the standard library, miekg/dns,
// or yawning/utls).
package netxlite
