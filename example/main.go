// MIT License
//
// Copyright (c) 2022-2026 Arsene Tochemey Gandote
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/travisjeffery/go-dynaport"

	"github.com/tochemey/steward"
	"github.com/tochemey/steward/registry"
	"github.com/tochemey/steward/worker"
)

// Httpd serves a trivial HTTP endpoint for the lifetime of its service.
type Httpd struct {
	steward.NoopBehavior
	addr   string
	server *http.Server
}

func (h *Httpd) OnStart(_ context.Context, service *steward.Service) error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintln(w, "hello from", service.Label())
	})
	h.server = &http.Server{Handler: mux}

	service.AddTask(func(ctx context.Context, service *steward.Service) error {
		if err := h.server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return nil
}

func (h *Httpd) OnStop(ctx context.Context, _ *steward.Service) error {
	if h.server != nil {
		return h.server.Shutdown(ctx)
	}
	return nil
}

// Heartbeat periodically logs that the tree is alive.
type Heartbeat struct {
	steward.NoopBehavior
}

func (b *Heartbeat) OnStart(_ context.Context, service *steward.Service) error {
	service.AddTimer(10*time.Second, func(_ context.Context, service *steward.Service) error {
		service.Logger().Infof("path=(%s) is alive", service.Beacon().Path())
		return nil
	})
	return nil
}

func main() {
	ports := dynaport.Get(1)
	httpd := steward.NewService(&Httpd{addr: fmt.Sprintf("127.0.0.1:%d", ports[0])}, steward.WithLabel("Httpd"))
	heartbeat := steward.NewService(new(Heartbeat), steward.WithLabel("Heartbeat"))

	// the supervisor restarts the HTTP daemon in place should it crash
	supervisor := steward.NewOneForOneSupervisor(
		steward.WithSupervised(httpd),
		steward.WithMaxRestarts(10),
		steward.WithRestartWindow(30*time.Second))

	os.Exit(worker.New(
		worker.WithServices(supervisor.AsService(), heartbeat),
		worker.WithRegistry(registry.New()),
		worker.WithSnapshotInterval(5*time.Second),
	).Execute())
}
