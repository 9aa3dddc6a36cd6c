package domain

// KeyPrefix namespaces all Redis keys owned by reelrank.
const KeyPrefix = "reelrank:"
