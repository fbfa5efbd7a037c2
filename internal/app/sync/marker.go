// internal/app/sync/marker.go
package sync

import (
	"fmt"
	"strconv"
	"strings"
)

// MarkerPrefix tags a CRM group's source field as belonging to this sync
// system. A bare prefix means the group is claimed but its member-side
// counterpart has not been created yet; a "-<id>" suffix resolves the pair.
const MarkerPrefix = "synced-group"

// PendingMarker returns the marker for a claimed-but-unresolved group.
func PendingMarker() string {
	return MarkerPrefix
}

// ResolvedMarker returns the marker binding a CRM group to the member
// group with the given id.
func ResolvedMarker(memberGroupID int64) string {
	return fmt.Sprintf("%s-%d", MarkerPrefix, memberGroupID)
}

// ExtractGroupID pulls the member group id out of a resolved marker.
// Anything other than a well-formed resolved marker — empty source, an
// unrelated value, the bare pending marker, or a malformed suffix —
// reports absent.
func ExtractGroupID(source string) (int64, bool) {
	_, rest, found := strings.Cut(source, MarkerPrefix+"-")
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// IsSynced reports whether the source field carries any sync marker,
// pending or resolved.
func IsSynced(source string) bool {
	return strings.Contains(source, MarkerPrefix)
}
