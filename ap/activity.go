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

import (
	"encoding/json"
	"fmt"
)

type ActivityType string

const (
	Create       ActivityType = "Create"
	Update       ActivityType = "Update"
	Follow       ActivityType = "Follow"
	Accept       ActivityType = "Accept"
	Undo         ActivityType = "Undo"
	Delete       ActivityType = "Delete"
	Announce     ActivityType = "Announce"
	LikeActivity ActivityType = "Like"
)

type anyActivity struct {
	Context json.RawMessage `json:"@context"`
	ID      string          `json:"id"`
	Type    ActivityType    `json:"type"`
	Actor   string          `json:"actor"`
	Object  json.RawMessage `json:"object"`
	To      Audience        `json:"to"`
	CC      Audience        `json:"cc"`
}

type Activity struct {
	Context any          `json:"@context,omitempty"`
	ID      string       `json:"id"`
	Type    ActivityType `json:"type"`
	Actor   string       `json:"actor"`
	Object  any          `json:"object"`
	To      Audience     `json:"to,omitzero"`
	CC      Audience     `json:"cc,omitzero"`
}

func (a *Activity) UnmarshalJSON(b []byte) error {
	var common anyActivity
	if err := json.Unmarshal(b, &common); err != nil {
		return err
	}

	a.ID = common.ID
	a.Type = common.Type
	a.Actor = common.Actor
	a.To = common.To
	a.CC = common.CC

	if len(common.Context) > 0 {
		var context any
		if err := json.Unmarshal(common.Context, &context); err != nil {
			return err
		}
		a.Context = context
	}

	if len(common.Object) == 0 {
		return nil
	}

	var object Object
	var activity Activity
	var link string
	if err := json.Unmarshal(common.Object, &activity); err == nil && activity.Type != "" && !isObjectType(activity.Type) {
		a.Object = &activity
	} else if err := json.Unmarshal(common.Object, &object); err == nil {
		a.Object = &object
	} else if err := json.Unmarshal(common.Object, &link); err == nil {
		a.Object = link
	} else {
		return fmt.Errorf("invalid activity: %s", string(b))
	}

	return nil
}

func isObjectType(t ActivityType) bool {
	switch ObjectType(t) {
	case Note, Page, Article, Question, Tombstone:
		return true
	}
	return false
}
