package platform

// Package platform contains OS integration glue: discovery of the external
// extractor and transcoder binaries, home directory handling, and the default
// download directory.
