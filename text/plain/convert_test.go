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

package plain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromHTML_Empty(t *testing.T) {
	raw, links := FromHTML("")
	assert.Equal(t, "", raw)
	assert.Empty(t, links)
}

func TestFromHTML_Plain(t *testing.T) {
	raw, links := FromHTML("this is a plain post")
	assert.Equal(t, "this is a plain post", raw)
	assert.Empty(t, links)
}

func TestFromHTML_Paragraphs(t *testing.T) {
	raw, links := FromHTML(`<p>this is a paragraph</p><p>this another paragraph</p>`)
	assert.Equal(t, "this is a paragraph\n\nthis another paragraph", raw)
	assert.Empty(t, links)
}

func TestFromHTML_Mention(t *testing.T) {
	raw, links := FromHTML(`hi <span class="h-card"><a href="https://a.b/@x" class="u-url mention">@<span>x</span></a></span>, how are you?`)
	assert.Equal(t, "hi @x, how are you?", raw)
	assert.Empty(t, links)
}

func TestFromHTML_Link(t *testing.T) {
	raw, links := FromHTML(`have you seen <a href="https://c.d/efg" target="_blank" rel="nofollow noopener noreferrer"><span class="invisible">https://</span><span class="ellipsis">c.d/e</span><span class="invisible">fg</span></a>?`)
	assert.Equal(t, "have you seen c.d/e…?", raw)
	assert.Equal(t, []string{"https://c.d/efg"}, links.CollectKeys())
}

func TestFromHTML_ImageAltText(t *testing.T) {
	raw, links := FromHTML(`look: <img src="https://c.d/cat.png" alt="a cat"/>`)
	assert.Equal(t, "look: a cat", raw)
	assert.Equal(t, []string{"https://c.d/cat.png"}, links.CollectKeys())
}

func TestFromHTML_Invalid(t *testing.T) {
	// on tokenizer failure the raw input is the best we can do
	raw, _ := FromHTML("a < b")
	assert.NotEmpty(t, raw)
}
