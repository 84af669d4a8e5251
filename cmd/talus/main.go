// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

// Command talus analyzes fault tree models.
//
// Usage:
//
//	talus analyze plant.yaml --limit 6 --format json
//	talus validate plant.yaml
//	talus graph plant.yaml | dot -Tsvg -o plant.svg
//	talus serve --addr :8080
package main

import (
	"os"
)

func main() {
	// Execute the root command. Cobra handles parsing the arguments;
	// command Run functions report their own errors through ux.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
