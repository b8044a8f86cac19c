// Package ai defines the canonical, vendor-agnostic conversation model and the
// adapter interfaces of the gateway.
//
// A [Message] carries an ordered sequence of [ContentPart] values, a closed
// union of [TextPart] and [ImagePart]. [Normalize] builds that sequence from
// either a plain string or structured parts. Vendor adapters implement
// [Provider] (and [StreamProvider] when they can stream) and translate a
// [ChatRequest] into their own wire schema.
//
// Every failure the gateway surfaces is an [*Error] tagged with an
// [ErrorKind]; [HTTPStatus] maps it to the status returned to callers.
package ai
