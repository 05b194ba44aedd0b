// Package services defines the session boundary with the librespot playback gateway and implements it over HTTP.
//
// # Session Interface
//
// The download pipeline never speaks the streaming service's wire protocol
// itself. It consumes an authenticated-session capability through two small
// interfaces: [SessionService] turns a [CredentialSource] into a [Session],
// and [Session] exposes metadata lookup and content-stream opening for a
// parsed track reference. The gateway daemon owns the handshake, key
// exchange, and audio transport.
//
// # Credential Resolution
//
// [ResolveCredentialSource] picks exactly one credential source per run:
// a stored-credentials file (command-line path first, then the configured
// default, each subject to an existence check) or interactive OAuth.
// [DecodeStoredCredentials] auto-detects both on-disk encodings (the
// username/type/credentials shape and the username/auth_type/auth_data
// shape) by attempting each in a fixed order.
//
// # Gateway Implementation
//
// [GatewayService] implements [SessionService] against the gateway's HTTP
// surface. Stored-file authentication posts the credential JSON as-is;
// interactive authentication runs a local OAuth2 authorization-code flow
// (browser + callback server) and exchanges the resulting access token with
// the gateway. Metadata calls are rate limited.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrCredentialsNotFound] / [shared.ErrCredentialsMalformed] : local credential problems
//   - [shared.ErrAuthRejected] : the gateway refused the credentials
//   - [shared.ErrMetadataFetch] : metadata request failed
//   - [shared.ErrStreamOpen] : content stream could not be opened
package services
