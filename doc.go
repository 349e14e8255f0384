// Copyright 2026 The Salome Launcher Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package launcher starts and supervises the fixed group of server
// processes that together make up one running SALOME session: the naming
// service, the notification service, the launcher service, the session
// server (with or without GUI) and the connection manager.
//
// The group is all or nothing.  Services are started one at a time in
// rank order, and as soon as any one of them exits the whole session is
// torn down, in the exact reverse of the order in which things were
// created.  Teardown is also what happens on a signal, on a startup
// failure, and on a panic while running; there is exactly one place that
// does it, and it is safe to run more than once.
//
// The supervisor does not know or care what the children do.  It watches
// their output pipes (a closed stdout means the child went away), keeps a
// bounded copy of what they print, and cleans up the files and
// directories it staged for them.
package launcher
