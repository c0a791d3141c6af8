// Package mono provides a low-level monotonic clock reading used by the
// logger.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

// start anchors NanoTime; time.Since uses the monotonic clock reading that
// time.Now records alongside the wall time.
var start = time.Now()

// NanoTime returns a monotonic nanosecond reading. Only deltas between two
// calls are meaningful; the absolute value carries no wall-clock meaning.
func NanoTime() int64 {
	return int64(time.Since(start))
}
