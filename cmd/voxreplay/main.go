// Package main is voxreplay, a direct port of packetPlayer.py's
// command-line tool: it feeds a captured corpus through the same codec
// machinery a live connection uses and prints the decoded object stream,
// rather than only exercising it from inside go test the way the replay
// package's own tests do.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kelsonai/voxrelay/objects"
	"github.com/kelsonai/voxrelay/replay"
)

func main() {
	flag.Parse()
	path := flag.Arg(0)
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: voxreplay <corpus-file>")
		os.Exit(2)
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voxreplay: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	corpus, err := replay.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voxreplay: %v\n", err)
		os.Exit(1)
	}

	res, err := replay.Play(corpus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voxreplay: %v\n", err)
		os.Exit(1)
	}

	for _, l := range res.Headers {
		fmt.Println(l.Text)
	}
	fmt.Printf("-- %d preamble(s), %d record(s), %d object(s) --\n",
		len(res.Preambles), len(res.Records), len(res.Objects))

	for _, obj := range res.Objects {
		fmt.Println(objects.DebugJSON(obj))
	}
}
