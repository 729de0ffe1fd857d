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

package fed

import (
	"encoding/csv"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HostList is a set of domains matched by suffix: an entry matches itself
// and every subdomain. Used for blocked, silenced and media-silenced hosts.
type HostList struct {
	lock    sync.RWMutex
	wg      sync.WaitGroup
	w       *fsnotify.Watcher
	static  map[string]struct{}
	domains map[string]struct{}
}

const hostListReloadDelay = time.Second * 5

// NewHostList returns a [HostList] containing the given domains.
func NewHostList(entries []string) *HostList {
	static := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		static[strings.ToLower(entry)] = struct{}{}
	}

	return &HostList{static: static, domains: map[string]struct{}{}}
}

func loadHostList(path string) (map[string]struct{}, error) {
	domains := make(map[string]struct{})

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := csv.NewReader(f)
	first := true
	for {
		r, err := c.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if first {
			first = false
			continue
		}

		domains[strings.ToLower(r[0])] = struct{}{}
	}

	return domains, nil
}

// Watch merges a CSV file into the list and reloads it on change.
func (l *HostList) Watch(path string) error {
	domains, err := loadHostList(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}
	absPath := filepath.Join(dir, filepath.Base(path))

	l.lock.Lock()
	l.w = w
	l.domains = domains
	l.lock.Unlock()

	timer := time.NewTimer(math.MaxInt64)
	timer.Stop()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					timer.Stop()
					return
				}

				if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && event.Name == absPath {
					timer.Reset(hostListReloadDelay)
				}

			case <-timer.C:
				newDomains, err := loadHostList(path)
				if err != nil {
					slog.Warn("Failed to reload host list", "path", path, "error", err)
					continue
				}

				// ignore if the old list wasn't empty and the new one is; maybe the file was opened with O_TRUNC
				if len(l.domains) > 0 && len(newDomains) == 0 {
					slog.Warn("New host list is empty", "path", path)
					continue
				}

				l.lock.Lock()
				l.domains = newDomains
				l.lock.Unlock()
				slog.Info("Reloaded host list", "path", path, "length", len(newDomains))
			}
		}
	}()

	return nil
}

// Match determines whether a host equals, or is a subdomain of, any entry.
func (l *HostList) Match(host string) bool {
	if l == nil {
		return false
	}

	host = strings.ToLower(host)

	l.lock.RLock()
	defer l.lock.RUnlock()

	for {
		if _, ok := l.static[host]; ok {
			return true
		}
		if _, ok := l.domains[host]; ok {
			return true
		}

		i := strings.IndexByte(host, '.')
		if i < 0 {
			return false
		}
		host = host[i+1:]
	}
}

// Close frees resources.
func (l *HostList) Close() {
	if l.w != nil {
		l.w.Close()
	}
	l.wg.Wait()
}
