// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/net/webdav"

	"github.com/elliotnunn/lhafs/internal/webdavadapter"
)

var listCmd = &cobra.Command{
	Use:   "list ARCHIVE",
	Short: "List the entries of an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive(args[0])
		if err != nil {
			return err
		}
		defer a.Close()
		list, err := a.entries()
		dumpEntries(cmd.OutOrStdout(), list)
		return err
	},
}

var testCmd = &cobra.Command{
	Use:   "test ARCHIVE",
	Short: "Decode every file and check its CRC",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive(args[0])
		if err != nil {
			return err
		}
		defer a.Close()
		list, scanErr := a.entries()

		out := cmd.OutOrStdout()
		var n, bad int
		for _, e := range list {
			if e.IsDir() || e.Link != "" {
				continue
			}
			n++
			r, err := e.Open(a.disk)
			if err == nil {
				_, err = io.Copy(io.Discard, r)
			}
			if err != nil {
				bad++
				fmt.Fprintf(out, "FAILED %s: %v\n", e.Name, err)
			} else {
				fmt.Fprintf(out, "OK     %s\n", e.Name)
			}
		}
		if scanErr != nil {
			return scanErr
		} else if bad > 0 {
			return fmt.Errorf("%d of %d files failed", bad, n)
		}
		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat ARCHIVE NAME",
	Short: "Write one decoded file to standard output",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive(args[0])
		if err != nil {
			return err
		}
		defer a.Close()
		fsys, err := a.FS()
		if err != nil {
			return err
		}
		f, err := fsys.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(cmd.OutOrStdout(), f)
		return err
	},
}

// walker is satisfied by the filesystems that are filled in the background
type walker interface {
	Walk(waitFull bool) iter.Seq2[string, fs.FileMode]
}

var (
	serveAddr   string
	serveWebDAV bool
)

var serveCmd = &cobra.Command{
	Use:   "serve ARCHIVE",
	Short: "Serve the contents of an archive over HTTP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive(args[0])
		if err != nil {
			return err
		}
		defer a.Close()
		fsys, err := a.FS()
		if err != nil {
			return err
		}
		var h http.Handler = http.FileServerFS(fsys)
		if serveWebDAV {
			h = &webdav.Handler{
				FileSystem: &webdavadapter.FileSystem{Inner: fsys},
				LockSystem: webdav.NewMemLS(),
				Logger: func(r *http.Request, err error) {
					if err != nil {
						slog.Debug("webdavError", "method", r.Method, "path", r.URL.Path, "err", err)
					}
				},
			}
		}
		slog.Info("serving", "path", args[0], "addr", serveAddr, "webdav", serveWebDAV)
		if w, ok := fsys.(walker); ok {
			go func() {
				n := 0
				for range w.Walk(true) {
					n++
				}
				slog.Info("scanComplete", "path", args[0], "entries", n)
			}()
		}
		return http.ListenAndServe(serveAddr, h)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":1993", "listen address")
	serveCmd.Flags().BoolVar(&serveWebDAV, "webdav", false, "serve WebDAV instead of plain HTTP, for mounting")
}
