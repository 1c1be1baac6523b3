/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// drawdeckd is the sync server: it persists drawing revisions in Postgres
// and fans out save notifications to connected desktop clients.
package main

import (
	"fmt"
	"os"

	"drawdeck/internal/backend"
	applog "drawdeck/internal/log"
	"drawdeck/internal/version"
)

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("drawdeckd")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Println(version.String())
			return
		}
	}

	l.Info("starting sync server", "version", version.String())
	if err := backend.Start(); err != nil {
		l.Error("server failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
