// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"math"
	"os"
	"strconv"
)

// cacheBudget is the decompression cache size in megabytes
func cacheBudget() int {
	if e := os.Getenv("LHAFS_CACHE_MB"); e != "" {
		f, err := strconv.ParseFloat(e, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
			panic("malformed LHAFS_CACHE_MB environment variable, should be a number of megabytes: " + e)
		}
		return int(f)
	}
	return 256
}
