// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command riscv-debug-mock is a RISC-V JTAG Debug Transport Module emulator:
// it terminates an OpenOCD Remote Bitbang connection on a TCP socket and
// services debug-module register accesses for a simulated single-hart RV32
// target, so that OpenOCD and GDB can attach, halt/step, and read/write CSRs
// and memory against it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	_ "github.com/mkevac/debugcharts"

	"github.com/Thewbi/riscv-openocd-jtag-mock/bitbang"
	"github.com/Thewbi/riscv-openocd-jtag-mock/dm"
	"github.com/Thewbi/riscv-openocd-jtag-mock/dtm"
	"github.com/Thewbi/riscv-openocd-jtag-mock/hart"
	"github.com/Thewbi/riscv-openocd-jtag-mock/loader"
	"github.com/Thewbi/riscv-openocd-jtag-mock/tap"
)

// abits is the DMI address width this build is compiled for. The RISC-V
// Debug Specification allows 7..32; this emulator fixes 7, matching the
// original source's DTM register table.
const abits = 7

func main() {
	log.SetFlags(0)

	port := flag.Int("port", 3335, "TCP port the Remote Bitbang listener binds")
	program := flag.String("program", "", "Intel HEX file to preload into the simulated memory image")
	debugCharts := flag.String("debug-charts", "", "address to serve a debugcharts runtime dashboard on, e.g. 127.0.0.1:6060 (disabled if empty)")
	flag.Parse()

	image := loader.NewImage()
	var start uint32

	if *program != "" {
		f, err := os.Open(*program)
		if err != nil {
			log.Fatalf("riscv-debug-mock: opening %s: %v", *program, err)
		}
		img, startAddr, err := loader.Load(f)
		f.Close()
		if err != nil {
			log.Fatalf("riscv-debug-mock: loading %s: %v", *program, err)
		}
		image = img
		start = startAddr
		log.Printf("riscv-debug-mock: loaded %s, start address %#08x", *program, start)
	}

	if *debugCharts != "" {
		go func() {
			log.Printf("riscv-debug-mock: debugcharts: %v", http.ListenAndServe(*debugCharts, nil))
		}()
	}

	h := hart.New(start)
	module := dm.New(h, image)
	layer := dtm.New(abits, module)
	machine := tap.New(layer)

	addr := fmt.Sprintf(":%d", *port)
	srv, err := bitbang.NewServer(addr, machine, layer)
	if err != nil {
		log.Fatalf("riscv-debug-mock: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		log.Printf("riscv-debug-mock: shutting down")
		cancel()
		srv.Close()
	}()

	log.Printf("riscv-debug-mock: listening on %s", addr)
	srv.Serve(ctx)
}
