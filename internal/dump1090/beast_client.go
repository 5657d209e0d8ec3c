package dump1090

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"csl_trmnl/internal/models"
)

const (
	maxBackoff  = 30 * time.Second
	readTimeout = 1 * time.Second
)

// BeastClient streams Beast format frames from dump1090
type BeastClient struct {
	conn         net.Conn
	reader       *FrameReader
	addr         string
	maxRetries   int
	retryBackoff time.Duration
	logger       *slog.Logger
}

func NewBeastClient(addr string, logger *slog.Logger) *BeastClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &BeastClient{
		addr:         addr,
		maxRetries:   -1, // -1 means infinite retries
		retryBackoff: 1 * time.Second,
		logger:       logger,
	}
}

// connect establishes a TCP connection to dump1090
func (c *BeastClient) connect(ctx context.Context) error {
	dialer := net.Dialer{
		Timeout: 5 * time.Second,
	}

	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.addr, err)
	}

	c.conn = conn
	c.reader = NewFrameReader(conn)
	return nil
}

// StreamFrames reads frames into frames until ctx is cancelled, reconnecting
// with exponential backoff whenever the connection drops.
func (c *BeastClient) StreamFrames(ctx context.Context, frames chan<- *models.BeastFrame) error {
	retryCount := 0
	backoff := c.retryBackoff

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if c.conn == nil {
			if err := c.connect(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				retryCount++
				if c.maxRetries > 0 && retryCount > c.maxRetries {
					return fmt.Errorf("max retries (%d) exceeded", c.maxRetries)
				}
				c.logger.Warn("Failed to connect to Beast server", "addr", c.addr, "retry", retryCount, "error", err)

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
				// Exponential backoff: 1s, 2s, 4s, 8s, max 30s
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			retryCount = 0
			backoff = c.retryBackoff
			c.logger.Info("Connected to Beast server", "addr", c.addr)
		}

		err := c.readFrames(ctx, frames)
		if err != nil && ctx.Err() == nil {
			c.logger.Warn("Connection error, reconnecting", "error", err)
			c.closeConnection()
			continue
		}
		return ctx.Err()
	}
}

func (c *BeastClient) readFrames(ctx context.Context, frames chan<- *models.BeastFrame) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		frame, err := c.reader.Read()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, errBadFrame) {
				c.logger.Debug("Skipping malformed Beast frame", "error", err)
				continue
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("connection closed")
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}
		frame.ReceivedAt = time.Now()

		select {
		case frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

var errBadFrame = errors.New("malformed beast frame")

// FrameReader splits a Beast byte stream into frames. It resynchronises on
// the escape byte and removes the doubled escapes inside a frame.
type FrameReader struct {
	r *bufio.Reader

	// pending holds the type byte of a frame that interrupted the previous one.
	pending    byte
	hasPending bool
}

func NewFrameReader(r io.Reader) *FrameReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &FrameReader{r: br}
}

// Read returns the next frame. Malformed frames are reported with an error
// wrapping errBadFrame and reading may continue.
func (fr *FrameReader) Read() (*models.BeastFrame, error) {
	typeByte, err := fr.frameStart()
	if err != nil {
		return nil, err
	}

	n, err := models.BeastPayloadLen(typeByte)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadFrame, err)
	}

	payload := make([]byte, 0, n)
	for len(payload) < n {
		b, err := fr.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == models.BeastEscape {
			next, err := fr.r.ReadByte()
			if err != nil {
				return nil, err
			}
			if next != models.BeastEscape {
				// A new frame started early; drop this one.
				fr.pending, fr.hasPending = next, true
				return nil, fmt.Errorf("%w: truncated at %d of %d bytes", errBadFrame, len(payload), n)
			}
		}
		payload = append(payload, b)
	}

	frame, err := models.ParseBeastFrame(typeByte, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadFrame, err)
	}
	return frame, nil
}

// frameStart skips to an escape followed by something that is not another
// escape and returns that type byte.
func (fr *FrameReader) frameStart() (byte, error) {
	if fr.hasPending {
		fr.hasPending = false
		return fr.pending, nil
	}
	for {
		b, err := fr.r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != models.BeastEscape {
			continue
		}
		t, err := fr.r.ReadByte()
		if err != nil {
			return 0, err
		}
		if t != models.BeastEscape {
			return t, nil
		}
	}
}

// closeConnection closes the current connection
func (c *BeastClient) closeConnection() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

// Close closes the connection
func (c *BeastClient) Close() error {
	c.closeConnection()
	return nil
}
