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

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	launcher "github.com/mortbauer/salome-launcher"
	"github.com/mortbauer/salome-launcher/config"
	"github.com/mortbauer/salome-launcher/rest"
)

func newStatusCommand(settings *config.Settings, logger *log.Logger) *cobra.Command {
	var host string
	var port int
	var tail int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the services of a running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := findSession(cmd, host, port)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session %s on %s:%d, pid %d, up %s\n",
				rec.ID, rec.Host, rec.Port, rec.PID, formatUptime(time.Since(rec.Started)))
			if rec.StatusURL == "" {
				for _, name := range rec.Services {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			c := rest.NewClient(nil, rec.StatusURL)
			snap, err := c.Session(ctx)
			if err != nil {
				return fmt.Errorf("query %s: %w", rec.StatusURL, err)
			}
			printServices(out, snap, time.Now())
			if tail > 0 {
				for _, si := range snap.Services {
					li, err := c.Log(ctx, si.Name)
					if err != nil {
						logger.Warn("cannot fetch log", "service", si.Name, "err", err)
						continue
					}
					printLog(out, si.Name, li.Records, tail)
				}
			}
			return nil
		},
	}
	addSessionFlags(cmd, settings, &host, &port)
	cmd.Flags().IntVarP(&tail, "tail", "n", 0, "also show the last n output lines of each service")
	return cmd
}

func printServices(w io.Writer, snap *launcher.Snapshot, now time.Time) {
	fmt.Fprintf(w, "state %s\n", snap.State)
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tPID\tSTATUS\tUPTIME")
	for _, si := range snap.Services {
		up := "-"
		if si.Status == launcher.StatusRunning {
			up = formatUptime(now.Sub(si.Started))
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", si.Name, si.PID, si.Status, up)
	}
	tw.Flush()
}

func printLog(w io.Writer, name string, recs []launcher.LogRecord, n int) {
	if len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	fmt.Fprintf(w, "\n%s:\n", name)
	for _, r := range recs {
		fmt.Fprintf(w, "%s %s> %s\n", r.Time.Format(time.TimeOnly), r.Stream, r.Text)
	}
}

// formatUptime renders d as H:MM:SS, with a day count once a session
// has been up that long.  Negative values, from a cache written by a
// host with a different clock, show as zero.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	hms := fmt.Sprintf("%d:%02d:%02d", secs/3600%24, secs/60%60, secs%60)
	if days > 0 {
		return fmt.Sprintf("%dd %s", days, hms)
	}
	return hms
}
