package types

// Version is the canonical project version.
// The CLI, the published event payloads, and the cache layout share this version.
const Version = "0.3.0"

// EventContractVersion is stamped on every published channel event.
// Bumped only when the event payload shape changes.
const EventContractVersion = "0.2.0"
