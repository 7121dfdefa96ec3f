package model

// Package model defines the domain data structures shared across the core:
// download requests, progress events, conversion formats, video metadata, and
// status enums. Structures are immutable once produced and safe to hand to
// the IPC layer directly.
