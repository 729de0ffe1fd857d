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

package ap

// Context is the ActivityStreams JSON-LD namespace.
const Context = "https://www.w3.org/ns/activitystreams"

// HasContext determines whether a @context value names the ActivityStreams
// namespace, either directly or as an array member. Objects fetched from
// other servers are rejected if it doesn't: anything can be served as JSON,
// only JSON-LD in this namespace is an ActivityPub object.
func HasContext(context any) bool {
	switch v := context.(type) {
	case string:
		return v == Context

	case []any:
		for _, member := range v {
			if s, ok := member.(string); ok && s == Context {
				return true
			}
		}
	}

	return false
}
