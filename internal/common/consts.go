package common

// UnknownStr is the shared fallback for String() methods on enum kinds.
const UnknownStr = "unknown"
