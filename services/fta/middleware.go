// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package fta

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit returns middleware that throttles the whole route group
// with one shared token bucket.
//
// Description:
//
//	Analysis requests are CPU-bound, so the limiter is global rather
//	than per-client: the budget protects the process, not fairness
//	between callers. Requests over budget get 429 with a Retry-After
//	hint instead of queueing.
//
// Inputs:
//   - rps: sustained requests per second. Must be positive.
//   - burst: extra requests allowed in a spike. Must be positive.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "Too many requests",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

// LimitBodySize returns middleware that caps request body size.
//
// Description:
//
//	Wraps the request body in a MaxBytesReader so oversized payloads
//	fail during binding instead of being buffered whole. The JSON
//	framing around a model adds little, so the cap tracks the model
//	document limit with headroom.
//
// Inputs:
//   - maxBytes: the body size cap. Must be positive.
func LimitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
