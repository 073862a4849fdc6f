// Package protocol implements the wire format of the courtroom client
// protocol: hash-delimited text frames terminated by #%, the legacy
// first-field obfuscation cipher, and message encoding helpers.
package protocol
