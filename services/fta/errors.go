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

import "errors"

// Sentinel errors for the fault tree analysis service.
var (
	// ErrModelTooLarge indicates the submitted model document exceeds
	// the configured byte limit.
	ErrModelTooLarge = errors.New("model document too large")

	// ErrEmptyModel indicates the submitted model document was empty.
	ErrEmptyModel = errors.New("empty model document")

	// ErrNoArchive indicates a report lookup on a service that was
	// built without an archive store.
	ErrNoArchive = errors.New("report archive not configured")
)
