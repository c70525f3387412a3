// Package client is the CLI's connection to the gophauth gRPC endpoint.
//
// GRPCClient keeps the session token returned by Signup/Login and attaches
// it as "authorization: Bearer <token>" metadata on every call. gRPC status
// codes are mapped back to the sentinel errors of internal/common, so
// callers can match them with errors.Is.
package client
