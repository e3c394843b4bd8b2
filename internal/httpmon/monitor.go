// Package httpmon tracks HTTP/1.1 framing on a host-device byte
// stream, the way the tunnel driver needs to when IPP is carried over
// a transport (USB, Bluetooth serial) that does not itself understand
// HTTP message boundaries.
package httpmon

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Direction identifies which side of the byte stream a Feed call's
// bytes came from.
type Direction int

const (
	DirClient Direction = iota
	DirServer
)

func (d Direction) String() string {
	if d == DirClient {
		return "client"
	}
	return "server"
}

// Phase is the sub-state within a transaction.
type Phase int

const (
	PhaseClientHeaders Phase = iota
	PhaseClientData
	PhaseServerHeaders
	PhaseServerData
)

func (p Phase) String() string {
	switch p {
	case PhaseClientHeaders:
		return "client-headers"
	case PhaseClientData:
		return "client-data"
	case PhaseServerHeaders:
		return "server-headers"
	case PhaseServerData:
		return "server-data"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// method is the per-transaction method state; "waiting" is
// represented by an empty method with Phase left at its zero value.
type method string

const (
	methodNone    method = ""
	methodOptions method = "options"
	methodGet     method = "get"
	methodHead    method = "head"
	methodPost    method = "post"
	methodPut     method = "put"
	methodDelete  method = "delete"
)

// Errors mirror SPEC_FULL.md §4.3's named error cases exactly.
var (
	ErrBadRequestLine      = errors.New("httpmon: malformed request line")
	ErrMissingColon        = errors.New("httpmon: missing colon in header line")
	ErrBadChunkLength      = errors.New("httpmon: empty or negative chunk length")
	ErrBadContentLength    = errors.New("httpmon: negative content-length value")
	ErrMissingTrailerBlank = errors.New("httpmon: missing blank line at chunk trailer")
	ErrUnknownMethod       = errors.New("httpmon: unrecognized method")
	ErrLineTooLarge        = errors.New("httpmon: line buffer exceeded cap")
	ErrUnexpectedDirection = errors.New("httpmon: data received from unexpected direction")
)

// maxLineLen bounds the per-direction line buffer (Buffering,
// SPEC_FULL.md §4.3), modeled on the teacher's bounded-buffer-then-flush
// dump helper in ippsrv/debug.go.
const maxLineLen = 8192

// framing tracks how the current data phase's length is determined.
type framing struct {
	chunked       bool
	remaining     int64 // bytes left in current fixed-length or chunk
	sawFinalChunk bool
	bodyless      bool // HEAD or a status that carries no body
}

// Monitor is a single bidirectional HTTP/1.1 transaction tracker. It
// is not safe for concurrent use from multiple goroutines without
// external synchronization, matching the teacher's own
// mutex-in-the-owner (not mutex-in-the-type) convention for per-session
// state.
type Monitor struct {
	state  method
	phase  Phase
	expect Direction // which direction's bytes are currently expected

	clientLine bytes.Buffer
	serverLine bytes.Buffer

	fr framing

	status int

	log *slog.Logger
}

// NewMonitor returns a Monitor in the waiting state.
func NewMonitor() *Monitor {
	return &Monitor{
		state:  methodNone,
		expect: DirClient,
		log:    slog.With("component", "httpmon"),
	}
}

// State reports the current method state as a lowercase string, or
// "waiting" between transactions.
func (m *Monitor) State() string {
	if m.state == methodNone {
		return "waiting"
	}
	return string(m.state)
}

// Phase reports the current phase, meaningless while waiting.
func (m *Monitor) Phase() Phase { return m.phase }

// Feed consumes bytes observed traveling in direction dir, advancing
// the state machine. It returns a non-nil error (one of the Err*
// sentinels above, or one wrapping one) on any protocol violation.
func (m *Monitor) Feed(dir Direction, p []byte) error {
	if m.state == methodNone && dir != DirClient {
		return ErrUnexpectedDirection
	}
	if m.state != methodNone && dir != m.expect {
		return ErrUnexpectedDirection
	}

	for len(p) > 0 {
		var err error
		p, err = m.step(dir, p)
		if err != nil {
			return err
		}
	}
	return nil
}

// step consumes as much of p as one iteration needs and returns the
// remainder, generalizing printers/fsm.go's single-event transition()
// switch to a byte-level loop instead of a channel-delivered event.
func (m *Monitor) step(dir Direction, p []byte) ([]byte, error) {
	switch m.phase {
	case PhaseClientHeaders:
		return m.stepHeaders(dir, p, true)
	case PhaseServerHeaders:
		return m.stepHeaders(dir, p, false)
	case PhaseClientData, PhaseServerData:
		return m.stepData(dir, p)
	default:
		return m.stepHeaders(dir, p, true)
	}
}

func (m *Monitor) lineBuf(client bool) *bytes.Buffer {
	if client {
		return &m.clientLine
	}
	return &m.serverLine
}

// stepHeaders accumulates one line at a time into the direction's line
// buffer, dispatching a complete line to handleRequestLine/handleHeaderLine.
func (m *Monitor) stepHeaders(dir Direction, p []byte, client bool) ([]byte, error) {
	buf := m.lineBuf(client)
	idx := bytes.IndexByte(p, '\n')
	if idx < 0 {
		if buf.Len()+len(p) > maxLineLen {
			return nil, ErrLineTooLarge
		}
		buf.Write(p)
		return nil, nil
	}
	buf.Write(p[:idx])
	line := strings.TrimRight(buf.String(), "\r")
	buf.Reset()
	rest := p[idx+1:]

	if err := m.handleHeaderLine(line, client); err != nil {
		return nil, err
	}
	return rest, nil
}

func (m *Monitor) handleHeaderLine(line string, client bool) error {
	if line == "" {
		return m.handleBlankLine(client)
	}
	if client && m.phase == PhaseClientHeaders && m.state == methodNone {
		return m.handleRequestLine(line)
	}
	if !client && m.phase == PhaseServerHeaders && m.status == 0 {
		return m.handleStatusLine(line)
	}
	return m.handleGenericHeader(line)
}

func (m *Monitor) handleRequestLine(line string) error {
	parts := strings.Fields(line)
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "HTTP/") {
		return ErrBadRequestLine
	}
	meth := method(strings.ToLower(parts[0]))
	switch meth {
	case methodOptions, methodGet, methodHead, methodPost, methodPut, methodDelete:
	default:
		return ErrUnknownMethod
	}
	m.state = meth
	m.phase = PhaseClientHeaders
	m.expect = DirClient
	m.fr = framing{bodyless: meth == methodHead}
	m.status = 0
	m.log.Debug("request line", "method", meth, "target", parts[1])
	return nil
}

func (m *Monitor) handleStatusLine(line string) error {
	parts := strings.Fields(line)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/") {
		return ErrBadRequestLine
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return ErrBadRequestLine
	}
	m.status = code
	if code/100 == 1 || code == 204 || code == 304 {
		m.fr.bodyless = true
	}
	return nil
}

func (m *Monitor) handleGenericHeader(line string) error {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return ErrMissingColon
	}
	name := strings.ToLower(strings.TrimSpace(line[:idx]))
	value := strings.TrimSpace(line[idx+1:])
	switch name {
	case "transfer-encoding":
		if strings.EqualFold(value, "chunked") {
			m.fr.chunked = true
		}
	case "content-length":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return ErrBadContentLength
		}
		if !m.fr.chunked {
			m.fr.remaining = n
		}
	}
	return nil
}

// handleBlankLine implements the phase transitions triggered by the
// header-section terminator, per SPEC_FULL.md §4.3 "Phase transitions".
func (m *Monitor) handleBlankLine(client bool) error {
	if client {
		if m.state == methodPost || m.state == methodPut {
			m.phase = PhaseClientData
			m.expect = DirClient
			if !m.fr.chunked && m.fr.remaining == 0 {
				return m.toServerHeaders()
			}
			return nil
		}
		return m.toServerHeaders()
	}
	if m.fr.bodyless {
		return m.toWaiting()
	}
	m.phase = PhaseServerData
	m.expect = DirServer
	if !m.fr.chunked && m.fr.remaining == 0 {
		return m.toWaiting()
	}
	return nil
}

func (m *Monitor) toServerHeaders() error {
	m.phase = PhaseServerHeaders
	m.expect = DirServer
	m.fr = framing{bodyless: m.fr.bodyless}
	return nil
}

func (m *Monitor) toWaiting() error {
	m.state = methodNone
	m.phase = PhaseClientHeaders
	m.expect = DirClient
	m.status = 0
	m.fr = framing{}
	return nil
}

// stepData consumes framed body bytes (chunked or fixed-length) and
// detects the end-of-data transition for the current phase.
func (m *Monitor) stepData(dir Direction, p []byte) ([]byte, error) {
	client := dir == DirClient
	if m.fr.chunked {
		return m.stepChunked(p, client)
	}
	n := int64(len(p))
	if n >= m.fr.remaining {
		consumed := m.fr.remaining
		m.fr.remaining = 0
		if err := m.dataComplete(client); err != nil {
			return nil, err
		}
		return p[consumed:], nil
	}
	m.fr.remaining -= n
	return nil, nil
}

func (m *Monitor) stepChunked(p []byte, client bool) ([]byte, error) {
	buf := m.lineBuf(client)

	if m.fr.remaining > 0 {
		n := int64(len(p))
		if n >= m.fr.remaining {
			consumed := m.fr.remaining
			m.fr.remaining = -1 // chunk data done; its CRLF comes next
			return p[consumed:], nil
		}
		m.fr.remaining -= n
		return nil, nil
	}

	idx := bytes.IndexByte(p, '\n')
	if idx < 0 {
		if buf.Len()+len(p) > maxLineLen {
			return nil, ErrLineTooLarge
		}
		buf.Write(p)
		return nil, nil
	}
	buf.Write(p[:idx])
	line := strings.TrimRight(buf.String(), "\r")
	buf.Reset()
	rest := p[idx+1:]

	if m.fr.remaining < 0 {
		m.fr.remaining = 0
		if line != "" {
			return nil, ErrBadChunkLength
		}
		return rest, nil
	}

	if m.fr.sawFinalChunk {
		if line == "" {
			if err := m.dataComplete(client); err != nil {
				return nil, err
			}
			return rest, nil
		}
		return rest, nil // trailer header line, ignored
	}

	size := line
	if i := strings.IndexByte(size, ';'); i >= 0 {
		size = size[:i]
	}
	length, err := strconv.ParseInt(strings.TrimSpace(size), 16, 64)
	if err != nil || length < 0 {
		return nil, ErrBadChunkLength
	}
	if length == 0 {
		m.fr.sawFinalChunk = true
		return rest, nil
	}
	m.fr.remaining = length
	return rest, nil
}

func (m *Monitor) dataComplete(client bool) error {
	if m.fr.chunked && m.fr.sawFinalChunk {
		// a zero-length chunk must be followed by a blank trailer line,
		// enforced by stepChunked's own loop; reaching here means it was.
	} else if m.fr.chunked && !m.fr.sawFinalChunk {
		return ErrMissingTrailerBlank
	}
	if client {
		return m.toServerHeaders()
	}
	return m.toWaiting()
}
