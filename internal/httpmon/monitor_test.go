package httpmon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func feedAll(t *testing.T, m *Monitor, msgs []struct {
	dir Direction
	s   string
}) error {
	t.Helper()
	for _, msg := range msgs {
		if err := m.Feed(msg.dir, []byte(msg.s)); err != nil {
			return err
		}
	}
	return nil
}

func TestMonitor_FixedLengthRoundTrip(t *testing.T) {
	m := NewMonitor()
	req := "POST /ipp/print HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nhello"
	require.NoError(t, m.Feed(DirClient, []byte(req)))
	require.Equal(t, "server-headers", m.Phase().String())

	resp := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"
	require.NoError(t, m.Feed(DirServer, []byte(resp)))
	require.Equal(t, "waiting", m.State())
}

func TestMonitor_ChunkedRequestBody(t *testing.T) {
	m := NewMonitor()
	req := "POST /ipp/print HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n0\r\n\r\n"
	require.NoError(t, m.Feed(DirClient, []byte(req)))
	require.Equal(t, "server-headers", m.Phase().String())
}

func TestMonitor_HeadHasNoResponseBody(t *testing.T) {
	m := NewMonitor()
	require.NoError(t, m.Feed(DirClient, []byte("HEAD /ipp/print HTTP/1.1\r\n\r\n")))
	require.NoError(t, m.Feed(DirServer, []byte("HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\n")))
	require.Equal(t, "waiting", m.State())
}

func TestMonitor_Errors(t *testing.T) {
	tests := []struct {
		name string
		msgs []struct {
			dir Direction
			s   string
		}
		wantErr error
	}{
		{
			name: "bad request line",
			msgs: []struct {
				dir Direction
				s   string
			}{{DirClient, "NOTHTTP\r\n"}},
			wantErr: ErrBadRequestLine,
		},
		{
			name: "unknown method",
			msgs: []struct {
				dir Direction
				s   string
			}{{DirClient, "TRACE / HTTP/1.1\r\n"}},
			wantErr: ErrUnknownMethod,
		},
		{
			name: "missing colon",
			msgs: []struct {
				dir Direction
				s   string
			}{{DirClient, "GET / HTTP/1.1\r\nBad Header Without Colon\r\n"}},
			wantErr: ErrMissingColon,
		},
		{
			name: "unexpected direction",
			msgs: []struct {
				dir Direction
				s   string
			}{{DirServer, "HTTP/1.1 200 OK\r\n"}},
			wantErr: ErrUnexpectedDirection,
		},
		{
			name: "negative content-length",
			msgs: []struct {
				dir Direction
				s   string
			}{{DirClient, "POST / HTTP/1.1\r\nContent-Length: -1\r\n"}},
			wantErr: ErrBadContentLength,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor()
			err := feedAll(t, m, tt.msgs)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
