package transporttest

import (
	"context"
	"io"
	"net"
	"time"

	"stream-fetch/transport"

	"github.com/dchest/uniuri"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

// TransportTestSuite checks the [transport.Transport] contract against a
// real peer. Embedding suites set Listen and New.
type TransportTestSuite struct {
	suite.Suite

	// Listen opens the listener the client connects to.
	Listen func() (net.Listener, error)
	// New creates the unconnected client under test.
	New func(ep transport.Endpoint) transport.Transport

	Client transport.Transport
	Peer   net.Conn

	lis net.Listener
}

func (s *TransportTestSuite) SetupTest() {
	lis, err := s.Listen()
	s.Require().NoError(err)
	s.lis = lis

	accepted := make(chan net.Conn, 1)
	go func() {
		defer close(accepted)
		conn, err := lis.Accept()
		if err != nil {
			return
		}
		if hs, ok := conn.(interface{ Handshake() error }); ok {
			if err := hs.Handshake(); err != nil {
				conn.Close()
				return
			}
		}
		accepted <- conn
	}()

	host, port, err := net.SplitHostPort(lis.Addr().String())
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.Client = s.New(transport.Endpoint{Host: host, Port: port})
	s.Require().NoError(s.Client.Connect(ctx))

	peer, ok := <-accepted
	s.Require().True(ok, "peer was not accepted")
	s.Peer = peer
}

func (s *TransportTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.NoError(s.Client.Close())
	if s.Peer != nil {
		s.Peer.Close()
	}
	s.lis.Close()
}

func (s *TransportTestSuite) TestSendAll() {
	data := []byte(uniuri.NewLen(100_000))

	done := make(chan []byte)
	go func() {
		buf := make([]byte, len(data))
		n, _ := io.ReadFull(s.Peer, buf)
		done <- buf[:n]
	}()

	s.Require().NoError(s.Client.SendAll(data))
	s.Equal(data, <-done)
}

func (s *TransportTestSuite) TestReceiveSome() {
	data := []byte("Hello, World!")
	go s.Peer.Write(data)

	received := make([]byte, 0, len(data))
	for len(received) < len(data) {
		b, err := s.Client.ReceiveSome(5)
		s.Require().NoError(err)
		s.NotEmpty(b)
		s.LessOrEqual(len(b), 5)
		received = append(received, b...)
	}
	s.Equal(data, received)
}

func (s *TransportTestSuite) TestReceiveAll() {
	data := []byte(uniuri.NewLen(20_000))
	go func() {
		s.Peer.Write(data)
		s.Peer.Close()
	}()

	b, err := s.Client.ReceiveAll()
	s.Require().NoError(err)
	s.Equal(data, b)
}

func (s *TransportTestSuite) TestPeerClose() {
	s.Require().NoError(s.Peer.Close())

	b, err := s.Client.ReceiveSome(10)
	s.ErrorIs(err, io.EOF)
	s.Empty(b)
}

func (s *TransportTestSuite) TestReadDeadline() {
	s.Require().NoError(s.Client.SetReadDeadline(time.Now().Add(-time.Second)))

	b, err := s.Client.ReceiveSome(1)
	s.ErrorIs(err, transport.ErrDeadlineExceeded)
	s.NotErrorIs(err, transport.ErrTransfer)
	s.Empty(b)
}

func (s *TransportTestSuite) TestClose() {
	s.Require().NoError(s.Client.Close())
	s.Require().NoError(s.Client.Close())

	_, err := s.Client.ReceiveSome(1)
	s.ErrorIs(err, transport.ErrTransfer)
	s.ErrorIs(err, transport.ErrConnClosed)

	err = s.Client.SendAll([]byte("hey"))
	s.ErrorIs(err, transport.ErrTransfer)
	s.ErrorIs(err, transport.ErrConnClosed)
}

func (s *TransportTestSuite) TestReader() {
	data := []byte(uniuri.NewLen(3000))
	go func() {
		s.Peer.Write(data)
		s.Peer.Close()
	}()

	b, err := io.ReadAll(transport.NewReader(s.Client))
	s.Require().NoError(err)
	s.Equal(data, b)
}
