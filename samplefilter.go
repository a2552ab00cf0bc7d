// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"bufio"
	"os"
	"strings"
)

// ReadExcludeSamples reads one sample identifier per line from path,
// skipping blank lines, and returns the set to drop (spec.md §6
// excludesamples argument).
func ReadExcludeSamples(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	set := map[string]bool{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name != "" {
			set[name] = true
		}
	}
	return set, sc.Err()
}
