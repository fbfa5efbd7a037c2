// Package htmlsanitize strips unsafe HTML from user-controlled text.
//
// CiviCRM group descriptions may contain markup entered by CRM staff; they
// are mirrored into the member-side store and rendered by the host
// platform, so they pass through a UGC policy on the way in.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.UGCPolicy()

// Sanitize returns s with scripts, event handlers and unsafe URLs removed.
// Standard formatting tags and safe links are preserved.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
