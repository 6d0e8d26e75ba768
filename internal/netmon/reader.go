package netmon

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netmond/internal/nlmsg"
)

const readBufferSize = 16 << 10

// conn is the receiving side of a netlink socket. Close must unblock a
// pending Read.
type conn interface {
	Read(b []byte) (int, error)
	Close() error
}

// runNetlink enumerates over c and then follows live notifications until ctx
// is cancelled or a fatal error occurs. It owns c and closes it.
func runNetlink(ctx context.Context, c conn, r dumpRequester, portID, seq uint32, table *Table, emit EventHandler) error {
	e := newEnumerator(table, r, portID, seq, emit)
	if err := e.start(); err != nil {
		_ = c.Close()
		return err
	}
	return readLoop(ctx, c, e.handle)
}

// readLoop reads from c until ctx is cancelled or a fatal error occurs and
// passes every complete message to handle. Messages handed to handle alias the
// read buffer and are only valid until handle returns. c is closed on return.
//
// Each Read returns one datagram and the kernel never splits a message across
// datagrams, so bytes left over after scanning a datagram are discarded.
func readLoop(ctx context.Context, c conn, handle func(nlmsg.Message) error) error {
	defer c.Close()
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	buf := make([]byte, readBufferSize)
	for {
		n, err := c.Read(buf)
		truncated := errors.Is(err, errTruncated)
		if err != nil && !truncated {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, errOverrun) {
				log.Warn("Netlink socket overrun, some interface changes were lost")
				promOverruns.Inc()
				continue
			}
			if errors.Is(err, io.EOF) {
				return errors.New("netlink socket closed")
			}
			return fmt.Errorf("reading netlink socket: %w", err)
		}

		consumed, err := scanMessages(buf[:n], handle)
		if err != nil {
			return err
		}
		if consumed < n || truncated {
			log.WithFields(log.Fields{
				"bytes":     n - consumed,
				"truncated": truncated,
			}).Warn("Discarding incomplete netlink message")
			promFramingErrors.Inc()
		}
	}
}

// scanMessages hands every complete message in b to handle and returns the
// number of bytes consumed. Malformed headers are skipped.
func scanMessages(b []byte, handle func(nlmsg.Message) error) (int, error) {
	s := nlmsg.NewScanner(b)
	for {
		for s.Scan() {
			if err := handle(s.Message()); err != nil {
				return s.Offset(), err
			}
		}

		var fe *nlmsg.FramingError
		if !errors.As(s.Err(), &fe) {
			return s.Offset(), nil
		}
		log.WithFields(log.Fields{
			"offset": fe.Offset,
			"len":    fe.Len,
		}).Warn("Skipping malformed netlink message")
		promFramingErrors.Inc()
		s.Resync()
	}
}
