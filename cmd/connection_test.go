// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var captureSamples = []byte{0, 1, 0, 1, 1, 1, 0, 0, 1, 0}

func writeCapture(t *testing.T, name string, wrap func(io.Writer) io.WriteCloser) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()

	w := wrap(f)
	if _, err := w.Write(captureSamples); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// ============================================================
// Capture File Tests
// ============================================================

func TestOpenFileSource(t *testing.T) {
	tests := []struct {
		name string
		file string
		wrap func(io.Writer) io.WriteCloser
	}{
		{"plain", "capture.bin", func(w io.Writer) io.WriteCloser { return nopWriteCloser{w} }},
		{"gzip", "capture.bin.gz", func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) }},
		{"zstd", "capture.bin.zst", func(w io.Writer) io.WriteCloser {
			// Only option errors fail here and none are passed
			zw, _ := zstd.NewWriter(w)
			return zw
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCapture(t, tt.file, tt.wrap)

			src, err := OpenFileSource(path)
			if err != nil {
				t.Fatalf("OpenFileSource() error = %v", err)
			}
			got, err := io.ReadAll(src)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if err := src.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
			if !bytes.Equal(got, captureSamples) {
				t.Errorf("read %v, want %v", got, captureSamples)
			}
		})
	}
}

func TestOpenFileSource_Errors(t *testing.T) {
	if _, err := OpenFileSource(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("expected error for missing file")
	}

	// Not a gzip stream
	path := writeCapture(t, "capture.gz", func(w io.Writer) io.WriteCloser { return nopWriteCloser{w} })
	if _, err := OpenFileSource(path); err == nil {
		t.Error("expected error for corrupt gzip header")
	}
}

// ============================================================
// WebSocket Source Tests
// ============================================================

// sampleServer streams messages to one client and closes the connection
// normally
func sampleServer(t *testing.T, user, pass string, messages [][]byte, text bool) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user != "" {
			u, p, ok := r.BasicAuth()
			if !ok || u != user || p != pass {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if text {
			conn.WriteMessage(websocket.TextMessage, []byte("status: ok"))
		}
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.BinaryMessage, m); err != nil {
				return
			}
		}
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

		// Wait for the client to answer the close
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURLFor(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketConnection_Read(t *testing.T) {
	srv := sampleServer(t, "", "", [][]byte{{0, 1, 0}, {1, 1}, {0}}, true)
	defer srv.Close()

	src, err := OpenWebSocketConnection(wsURLFor(srv), "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection() error = %v", err)
	}
	defer src.Close()

	got, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if want := []byte{0, 1, 0, 1, 1, 0}; !bytes.Equal(got, want) {
		t.Errorf("read %v, want %v", got, want)
	}

	if _, err := src.Read(make([]byte, 1)); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Read() after close error = %v, want ErrConnectionClosed", err)
	}
}

func TestWebSocketConnection_SmallReads(t *testing.T) {
	srv := sampleServer(t, "", "", [][]byte{{1, 2, 3, 4, 5}}, false)
	defer srv.Close()

	src, err := OpenWebSocketConnection(wsURLFor(srv), "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection() error = %v", err)
	}
	defer src.Close()

	got, err := io.ReadAll(iotestOneByte{src})
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("read %v", got)
	}
}

// iotestOneByte reads one byte at a time
type iotestOneByte struct {
	r io.Reader
}

func (o iotestOneByte) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestOpenWebSocketConnection_Auth(t *testing.T) {
	srv := sampleServer(t, "operator", "secret", [][]byte{{1}}, false)
	defer srv.Close()

	if _, err := OpenWebSocketConnection(wsURLFor(srv), "operator", "wrong", false); err == nil {
		t.Error("expected error for bad credentials")
	}

	src, err := OpenWebSocketConnection(wsURLFor(srv), "operator", "secret", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection() error = %v", err)
	}
	src.Close()
}

func TestOpenWebSocketConnection_BadScheme(t *testing.T) {
	if _, err := OpenWebSocketConnection("http://localhost:1234/samples", "", "", false); err == nil {
		t.Error("expected error for http scheme")
	}
}

func TestGetPassword_FromEnvironment(t *testing.T) {
	t.Setenv(passwordEnv, "hunter2")
	pw, err := GetPassword()
	if err != nil {
		t.Fatalf("GetPassword() error = %v", err)
	}
	if pw != "hunter2" {
		t.Errorf("GetPassword() = %q", pw)
	}
}
