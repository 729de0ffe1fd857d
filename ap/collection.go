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

type CollectionType string

const (
	Collection        CollectionType = "Collection"
	OrderedCollection CollectionType = "OrderedCollection"
)

// CollectionObject represents an ActivityPub collection, ordered or not.
type CollectionObject struct {
	Context      any            `json:"@context,omitempty"`
	ID           string         `json:"id"`
	Type         CollectionType `json:"type"`
	First        string         `json:"first,omitempty"`
	Last         string         `json:"last,omitempty"`
	TotalItems   *int64         `json:"totalItems,omitempty"`
	Items        Array[string]  `json:"items,omitzero"`
	OrderedItems Array[string]  `json:"orderedItems,omitzero"`
}
