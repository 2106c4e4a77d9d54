// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package webdavadapter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/elliotnunn/lhafs/internal/fskeleton"
	"golang.org/x/net/webdav"
)

func sample(t *testing.T) *fskeleton.FS {
	t.Helper()
	fsys := fskeleton.New()
	mtime := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	data := []byte("hello, webdav")
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(fsys.CreateReaderAtFile("docs/hello.txt", bytes.NewReader(data), int64(len(data)), 0o644, mtime, nil))
	must(fsys.CreateSymlink("docs/alias", "docs/hello.txt", 0o777, mtime, nil))
	must(fsys.CreateErrorFile("broken.bin", errors.New("corrupt"), 10, 0o644, mtime, nil))
	fsys.NoMore()
	return fsys
}

func TestReadOnly(t *testing.T) {
	ctx := context.Background()
	w := &FileSystem{Inner: sample(t)}
	if err := w.Mkdir(ctx, "/new", 0o755); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("Mkdir: %v", err)
	}
	if err := w.RemoveAll(ctx, "/docs"); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("RemoveAll: %v", err)
	}
	if err := w.Rename(ctx, "/docs", "/papers"); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("Rename: %v", err)
	}
	if _, err := w.OpenFile(ctx, "/docs/hello.txt", os.O_RDWR, 0); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("OpenFile for writing: %v", err)
	}
	if _, err := w.Stat(ctx, "/../escape"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat of an invalid path: %v", err)
	}
}

func TestReaddirFollowsLinks(t *testing.T) {
	w := &FileSystem{Inner: sample(t)}
	f, err := w.OpenFile(context.Background(), "/docs/", os.O_RDONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	list, err := f.Readdir(-1)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]int64{}
	for _, i := range list {
		if i.IsDir() || i.Mode() != 0o444 {
			t.Errorf("%s: mode %v", i.Name(), i.Mode())
		}
		got[i.Name()] = i.Size()
	}
	if got["alias"] != 13 || got["hello.txt"] != 13 {
		t.Errorf("sizes %v", got)
	}
}

func TestServe(t *testing.T) {
	h := &webdav.Handler{
		FileSystem: &FileSystem{Inner: sample(t)},
		LockSystem: webdav.NewMemLS(),
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/docs/hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "hello, webdav" {
		t.Errorf("GET: %d %q", resp.StatusCode, body)
	}

	req, _ := http.NewRequest("PROPFIND", srv.URL+"/docs/", nil)
	req.Header.Set("Depth", "1")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusMultiStatus || !strings.Contains(string(body), "hello.txt") {
		t.Errorf("PROPFIND: %d %s", resp.StatusCode, body)
	}

	req, _ = http.NewRequest("PUT", srv.URL+"/docs/new.txt", strings.NewReader("x"))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode < 400 {
		t.Errorf("PUT should fail, got %d", resp.StatusCode)
	}
}
