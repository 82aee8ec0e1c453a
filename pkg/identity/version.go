package identity

// VersionPair carries the pair of monotonic server-assigned versions
// attached to every node: metadata_version (bumped on any metadata change)
// and content_version (bumped on document body writes; always 0 for
// folders and links).
type VersionPair struct {
	Metadata uint64
	Content  uint64
}

// Max returns the element-wise maximum of two version pairs. The metadata
// merge in pkg/merge computes its maxima separately and does not call it.
func (v VersionPair) Max(other VersionPair) VersionPair {
	result := v
	if other.Metadata > result.Metadata {
		result.Metadata = other.Metadata
	}
	if other.Content > result.Content {
		result.Content = other.Content
	}
	return result
}

// HighWaterMark tracks the highest metadata_version a device has observed
// from the server, used to request deltas on the next pull. It is stored in
// the repo's meta record alongside the account identity, read at the start
// of each sync cycle and advanced inside that cycle's promote transaction.
type HighWaterMark struct {
	// Metadata is the highest metadata_version seen across all pulled nodes.
	Metadata uint64
}

// Advance updates the high-water mark if version is greater than the
// current value. It returns whether the mark advanced.
func (h *HighWaterMark) Advance(version uint64) bool {
	if version > h.Metadata {
		h.Metadata = version
		return true
	}
	return false
}
