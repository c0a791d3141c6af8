// Package proxy wires one client connection and its upstream connection
// into a forwarding Pair: two frame.Codec instances, two paired
// session.Engines, and the dispatch pipeline run over every decoded object
// in both directions, per §4.3/§4.4. It is the seam where iface.Conn,
// wire/frame, wire/plist, objects, session, and dispatch all meet.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/kelsonai/voxrelay/cmn/nlog"
	"github.com/kelsonai/voxrelay/dispatch"
	"github.com/kelsonai/voxrelay/iface"
	"github.com/kelsonai/voxrelay/objects"
	"github.com/kelsonai/voxrelay/session"
	"github.com/kelsonai/voxrelay/stats"
	"github.com/kelsonai/voxrelay/wire/frame"
	"github.com/kelsonai/voxrelay/wire/plist"
	"golang.org/x/sync/errgroup"
)

const readChunkSize = 32 << 10

// side is one direction's half of the Pair: a raw connection, the codec
// decoding its inbound bytes, and the engine tracking its session state.
type side struct {
	conn   iface.Conn
	codec  *frame.Codec
	engine *session.Engine
}

// Pair forwards one client's traffic to its upstream and back, running the
// dispatch pipeline over every decoded object. It implements dispatch.Sink
// so plugins can inject objects toward the client through the same codec
// normal forwarding uses.
type Pair struct {
	client   side
	upstream side

	dispatcher *dispatch.Dispatcher
	injector   *dispatch.Injector

	mu sync.Mutex // serializes consume across both pumps, which share codecs
}

// New builds a Pair over an already-accepted client connection and an
// already-dialed upstream connection. Both engines are paired immediately
// so refId/aceId propagation (§4.3 step 2) reaches across both directions
// from the first object onward.
func New(client, upstream iface.Conn, d *dispatch.Dispatcher) *Pair {
	clientEngine, upstreamEngine := session.New(), session.New()
	session.Pair(clientEngine, upstreamEngine)

	p := &Pair{
		client:     side{conn: client, codec: frame.NewCodec(), engine: clientEngine},
		upstream:   side{conn: upstream, codec: frame.NewCodec(), engine: upstreamEngine},
		dispatcher: d,
	}
	p.injector = dispatch.NewInjector(clientEngine, upstreamEngine, p)
	return p
}

// Run drives both directions concurrently until either one ends or ctx is
// canceled. Whichever happens first closes both connections, so the other
// direction's blocked read returns too, and then both engines' continuation
// state is torn down. Grounded on the jogger/heap fan-in's
// errgroup.WithContext pairing: the first goroutine to return an error
// cancels ctx for the other.
func (p *Pair) Run(ctx context.Context) error {
	stats.SessionOpened()
	defer stats.SessionClosed()

	group, ctx := errgroup.WithContext(ctx)
	var closeOnce sync.Once
	closeBoth := func() {
		closeOnce.Do(func() {
			_ = p.client.conn.Close()
			_ = p.upstream.conn.Close()
		})
	}
	go func() { <-ctx.Done(); closeBoth() }()
	group.Go(func() error { defer closeBoth(); return p.pump(ctx, FromClient) })
	group.Go(func() error { defer closeBoth(); return p.pump(ctx, FromServer) })
	err := group.Wait()
	if errors.Is(err, net.ErrClosed) {
		err = nil // a read cut short by closeBoth after the other side ended
	}

	p.client.engine.Teardown()
	p.upstream.engine.Teardown()
	return err
}

// Direction aliases dispatch.Direction so callers outside dispatch (e.g.
// cmd/voxrelay) don't need to import it just to say which way traffic
// flows through a Pair.
type Direction = dispatch.Direction

const (
	FromClient = dispatch.FromClient
	FromServer = dispatch.FromServer
)

// pump runs one direction's read loop: pull raw bytes off the source
// connection, feed them through that side's codec, and handle whatever
// falls out (header lines, preamble, control records, payload records).
func (p *Pair) pump(ctx context.Context, dir Direction) error {
	src, _ := p.sides(dir)
	buf := make([]byte, readChunkSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := src.conn.Read(buf)
		if n > 0 {
			p.mu.Lock()
			perr := p.consume(dir, buf[:n])
			p.mu.Unlock()
			if perr != nil {
				return perr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("proxy: read %s: %w", dir, err)
		}
	}
}

// sides returns (source, destination) for the direction traffic is
// currently flowing: FromClient reads off the client and ultimately
// forwards toward upstream; FromServer is the reverse.
func (p *Pair) sides(dir Direction) (src, dst *side) {
	if dir == FromClient {
		return &p.client, &p.upstream
	}
	return &p.upstream, &p.client
}

// consume feeds a chunk of raw bytes into dir's codec and handles whatever
// it yields: header lines are passed through verbatim (nothing in this
// protocol layer needs to inspect them), the handshake preamble is
// forwarded once, and every decoded record is routed to handleRecord.
func (p *Pair) consume(dir Direction, chunk []byte) error {
	src, dst := p.sides(dir)

	if !src.codec.Headers() {
		lines, rest, switched := src.codec.FeedLines(chunk)
		if err := p.forwardHeaderLines(dst, lines); err != nil {
			return err
		}
		if !switched {
			return nil
		}
		chunk = rest
	}

	preamble, records, err := src.codec.FeedRaw(chunk)
	if err != nil {
		return fmt.Errorf("proxy: %s framing: %w", dir, err)
	}
	if len(preamble) > 0 {
		if _, werr := dst.conn.Write(preamble); werr != nil {
			return fmt.Errorf("proxy: %s forward preamble: %w", dir, werr)
		}
	}
	for _, rec := range records {
		if err := p.handleRecord(dir, rec); err != nil {
			return err
		}
	}
	return nil
}

// forwardHeaderLines writes dir's header lines straight through to the
// other side's connection, CRLF-terminated, matching what a passthrough
// proxy would present.
func (p *Pair) forwardHeaderLines(dst *side, lines []frame.HeaderLine) error {
	for _, l := range lines {
		if _, err := dst.conn.Write([]byte(l.Text + "\r\n")); err != nil {
			return fmt.Errorf("proxy: forward header line: %w", err)
		}
	}
	return nil
}

// handleRecord routes one decoded record per §4.3: ping/pong/clear-context
// control records forward unchanged (clear-context additionally resets
// both engines locally so it takes effect even though the bytes are only
// relayed); payload records are decoded into an Object and run through the
// dispatch pipeline before being forwarded (possibly replaced, possibly
// dropped, possibly absorbed as a claimed utterance).
func (p *Pair) handleRecord(dir Direction, rec frame.Record) error {
	_, dst := p.sides(dir)
	stats.FrameDecoded(rec.Kind.String())

	switch rec.Kind {
	case frame.KindPing, frame.KindPong:
		return p.forwardControl(dst, rec.Kind, rec.Seq)
	case frame.KindClearContext:
		p.client.engine.ClearContext()
		p.upstream.engine.ClearContext()
		return p.forwardControl(dst, rec.Kind, rec.Seq)
	case frame.KindPayload:
		return p.handlePayload(dir, dst, rec.Payload)
	default:
		return nil
	}
}

func (p *Pair) forwardControl(dst *side, kind frame.Kind, seq uint32) error {
	out, err := dst.codec.EncodeControl(kind, seq)
	if err != nil {
		return fmt.Errorf("proxy: encode control: %w", err)
	}
	_, err = dst.conn.Write(out)
	return err
}

// handlePayload decodes a payload record into an Object, runs §4.3's
// forwarding logic over it, and forwards whatever survives.
func (p *Pair) handlePayload(dir Direction, dst *side, payload []byte) error {
	m, err := plist.Decode(payload)
	if err != nil {
		nlog.Errorf("proxy: %s: malformed payload: %v", dir, err)
		return nil // a malformed object is dropped, not fatal to the session
	}
	obj := objects.FromMap(m)
	nlog.Debugf(4, "proxy: %s: %s", dir, objects.DebugJSON(obj))

	out, drop := p.process(dir, obj)
	if drop {
		return nil
	}
	return p.send(dst, out)
}

// process implements §4.3's per-object state machine ahead of the filter
// pipeline, then the filter pipeline itself, then (for speech recognized
// on the phone and about to be sent upstream) the speech-rule pipeline
// that can claim the turn and swallow the object entirely before Apple's
// server ever sees it.
func (p *Pair) process(dir Direction, obj objects.Object) (out objects.Object, drop bool) {
	clientEngine := p.client.engine

	if dir == FromServer {
		if clientEngine.ShouldDrop(obj.RefID) {
			return objects.Object{}, true
		}
	}
	clientEngine.AdoptAceID(obj.AceID)

	out, drop = p.dispatcher.RunFilters(p.injector, obj, dir)
	if drop {
		return objects.Object{}, true
	}

	if dir == FromClient && out.Class == objects.ClassSpeechRecognized {
		text, err := objects.ExtractSpeech(out)
		if err != nil {
			nlog.Warningf("proxy: speech recognized but unextractable: %v", err)
			return out, false
		}
		if p.dispatcher.RunSpeechRules(p.injector, clientEngine, text) {
			clientEngine.Claim()
			return objects.Object{}, true
		}
	}

	return out, false
}

// send encodes obj back to its wire form and writes it to dst, the normal
// forwarding path for anything the filter pipeline didn't drop.
func (p *Pair) send(dst *side, obj objects.Object) error {
	blob, err := plist.Encode(plist.Map(obj.ToMap()))
	if err != nil {
		return fmt.Errorf("proxy: encode payload: %w", err)
	}
	out, err := dst.codec.EncodePayload(blob)
	if err != nil {
		return fmt.Errorf("proxy: frame payload: %w", err)
	}
	_, err = dst.conn.Write(out)
	return err
}

// InjectObject implements dispatch.Sink: an object synthesized by a plugin
// is encoded and written toward dir using that side's own outbound codec,
// so it shares the same compression stream as normally forwarded traffic.
// dispatch always injects with dir == FromServer (toward the client), which
// is exactly the direction whose sides() destination is the client
// connection.
func (p *Pair) InjectObject(dir Direction, obj objects.Object) error {
	_, dst := p.sides(dir)
	return p.send(dst, obj)
}
