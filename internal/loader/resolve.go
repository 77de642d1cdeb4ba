// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"fmt"

	"github.com/gemaraproj/multiline-loader/internal/multiline/sources"
)

// ResolveLogType picks the log type whose s3_key matches the object key of
// location. Log types are tried in name order; the first match wins.
func (l *Loader) ResolveLogType(location string) (string, error) {
	key := location
	if _, k, err := sources.ParseS3URI(location); err == nil {
		key = k
	}

	for _, name := range l.cfg.Names() {
		lt, _ := l.cfg.LogType(name)
		ok, err := lt.MatchesKey(key)
		if err != nil {
			return "", fmt.Errorf("log type %q: %w", name, err)
		}
		if ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("no log type matches %q: set s3_key in the configuration or name the log type", key)
}
