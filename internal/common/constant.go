package common

// AuthorizationHeaderName is the gRPC metadata key (and HTTP header) that
// carries the bearer access token on token-authenticated calls.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the token in AuthorizationHeaderName values.
const BearerPrefix = "Bearer "
