/*
Copyright 2025, 2026 Dima Krasner

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ingest

import "github.com/calico-social/calico/ap"

// BestIcon picks the icon to display for an actor that advertises several:
// the widest, then the tallest among equally wide ones. An icon with any
// dimensions beats one with none, and the first candidate wins a full tie.
func BestIcon(icons []ap.Attachment) *ap.Attachment {
	var best *ap.Attachment
	for i := range icons {
		icon := &icons[i]
		if icon.URL == "" {
			continue
		}
		if best == nil {
			best = icon
			continue
		}

		if icon.Width > best.Width || (icon.Width == best.Width && icon.Height > best.Height) {
			best = icon
		}
	}
	return best
}
