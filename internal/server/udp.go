package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/MaciejGrzybacz/DistributedSystems/internal/codec"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/config"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/dispatch"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/journal"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/metrics"
)

// readPollInterval bounds how long a blocked receive waits before the loop
// re-checks for cancellation.
const readPollInterval = 1 * time.Second

// UDPServer receives text datagrams and answers them one at a time
type UDPServer struct {
	conn       *net.UDPConn
	connMu     sync.Mutex
	config     *config.ServerConfig
	logger     *slog.Logger
	codec      codec.Codec
	classifier *dispatch.Classifier
	replies    map[string][]byte // reply text -> encoded payload

	metrics *metrics.Metrics
	journal *journal.Journal
	out     io.Writer

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan error

	// Counters
	datagramsReceived uint64
	repliesSent       uint64
	dropped           uint64
	decodeErrors      uint64
	sendErrors        uint64
	mu                sync.RWMutex
}

// Option configures optional UDPServer collaborators
type Option func(*UDPServer)

// WithMetrics attaches Prometheus metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *UDPServer) { s.metrics = m }
}

// WithJournal appends every decoded message to j
func WithJournal(j *journal.Journal) Option {
	return func(s *UDPServer) { s.journal = j }
}

// WithOutput sets where received messages are echoed; nil disables the echo
func WithOutput(w io.Writer) Option {
	return func(s *UDPServer) { s.out = w }
}

// NewUDPServer creates a server. Every rule reply is encoded up front so a
// reply the codec cannot represent is reported here instead of per datagram.
func NewUDPServer(cfg *config.ServerConfig, logger *slog.Logger, c codec.Codec, classifier *dispatch.Classifier, opts ...Option) (*UDPServer, error) {
	replies := make(map[string][]byte)
	for _, rule := range classifier.Rules() {
		payload, err := c.Encode(rule.Reply)
		if err != nil {
			return nil, fmt.Errorf("reply %q: %w", rule.Reply, err)
		}
		replies[rule.Reply] = payload
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &UDPServer{
		config:     cfg,
		logger:     logger,
		codec:      c,
		classifier: classifier,
		replies:    replies,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Listen binds the UDP socket. Start calls it; Serve calls it when the
// socket is not bound yet.
func (s *UDPServer) Listen() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != nil {
		return fmt.Errorf("UDP server already listening on %s", s.conn.LocalAddr())
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("UDP server stopped")
	}

	addr, err := net.ResolveUDPAddr("udp4", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP: %w", err)
	}

	s.conn = conn

	s.logger.Info("UDP server listening",
		slog.String("address", conn.LocalAddr().String()),
		slog.Int("buffer_size", s.config.BufferSize),
		slog.String("encoding", s.codec.Name()),
	)

	return nil
}

// Start binds the socket and runs Serve in the background. The result of
// Serve is delivered on Done.
func (s *UDPServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.done <- s.Serve(s.ctx)
	}()

	return nil
}

// Done delivers the error Serve returned when started with Start
func (s *UDPServer) Done() <-chan error {
	return s.done
}

// Stop cancels the receive loop, closes the socket and waits for Serve to return
func (s *UDPServer) Stop() error {
	s.logger.Info("Stopping UDP server...")

	s.cancel()

	var closeErr error
	if conn := s.listener(); conn != nil {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			closeErr = fmt.Errorf("failed to close UDP connection: %w", err)
		}
	}

	s.wg.Wait()

	stats := s.GetStatistics()
	s.logger.Info("UDP server stopped",
		slog.Uint64("datagrams_received", stats.DatagramsReceived),
		slog.Uint64("replies_sent", stats.RepliesSent),
		slog.Uint64("dropped", stats.Dropped),
	)

	return closeErr
}

// Addr returns the bound local address, or nil before Listen
func (s *UDPServer) Addr() *net.UDPAddr {
	conn := s.listener()
	if conn == nil {
		return nil
	}
	addr, _ := conn.LocalAddr().(*net.UDPAddr)
	return addr
}

func (s *UDPServer) listener() *net.UDPConn {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn
}

// Serve runs the receive/dispatch loop until ctx is cancelled or Stop is
// called, returning nil in both cases. Any other transport error ends the
// loop and is returned.
func (s *UDPServer) Serve(ctx context.Context) error {
	conn := s.listener()
	if conn == nil {
		if err := s.Listen(); err != nil {
			if s.stopping(ctx) {
				return nil
			}
			return err
		}
		conn = s.listener()
	}

	for {
		if s.stopping(ctx) {
			s.logger.Info("Receive loop stopping due to context cancellation")
			return nil
		}

		if err := conn.SetReadDeadline(time.Now().Add(readPollInterval)); err != nil {
			if s.stopping(ctx) {
				return nil
			}
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		// fresh buffer per datagram, nothing carries over between iterations
		buffer := make([]byte, s.config.BufferSize)
		n, remoteAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if s.stopping(ctx) {
				return nil
			}
			return fmt.Errorf("failed to read UDP datagram: %w", err)
		}

		if err := s.handleDatagram(conn, buffer[:n], remoteAddr); err != nil {
			if s.stopping(ctx) {
				return nil
			}
			return err
		}
	}
}

func (s *UDPServer) stopping(ctx context.Context) bool {
	return ctx.Err() != nil || s.ctx.Err() != nil
}

// handleDatagram decodes, classifies and answers a single datagram. Only a
// failed send is returned; everything else is counted and dropped.
func (s *UDPServer) handleDatagram(conn *net.UDPConn, data []byte, remoteAddr *net.UDPAddr) error {
	start := time.Now()

	s.mu.Lock()
	s.datagramsReceived++
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordDatagram(len(data))
	}

	message, err := s.codec.Decode(data)
	if err != nil {
		s.mu.Lock()
		s.decodeErrors++
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordDecodeError()
		}

		s.logger.Warn("Failed to decode datagram",
			slog.String("remote_addr", remoteAddr.String()),
			slog.Int("size", len(data)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if s.out != nil {
		fmt.Fprintf(s.out, "%s%s\n", s.config.ReceivePrefix, message)
	}

	if s.journal != nil {
		err := s.journal.Write(message)
		if s.metrics != nil {
			s.metrics.RecordJournalWrite(err)
		}
		if err != nil {
			s.logger.Error("Failed to write journal entry", slog.String("error", err.Error()))
		}
	}

	reply, ok := s.classifier.Classify(message)
	if !ok {
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordDropped()
		}

		s.logger.Debug("No rule matched, dropping datagram",
			slog.String("remote_addr", remoteAddr.String()),
			slog.String("message", message),
		)
		return nil
	}

	if _, err := conn.WriteToUDP(s.replies[reply], remoteAddr); err != nil {
		s.mu.Lock()
		s.sendErrors++
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordSendError()
		}
		return fmt.Errorf("failed to send reply to %s: %w", remoteAddr, err)
	}

	s.mu.Lock()
	s.repliesSent++
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordReply(reply, time.Since(start).Seconds())
	}

	s.logger.Debug("Reply sent",
		slog.String("remote_addr", remoteAddr.String()),
		slog.String("message", message),
		slog.String("reply", reply),
	)

	return nil
}

// GetStatistics returns current server statistics
func (s *UDPServer) GetStatistics() ServerStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ServerStatistics{
		DatagramsReceived: s.datagramsReceived,
		RepliesSent:       s.repliesSent,
		Dropped:           s.dropped,
		DecodeErrors:      s.decodeErrors,
		SendErrors:        s.sendErrors,
	}
}

// ServerStatistics represents server counters
type ServerStatistics struct {
	DatagramsReceived uint64 `json:"datagrams_received"`
	RepliesSent       uint64 `json:"replies_sent"`
	Dropped           uint64 `json:"dropped"`
	DecodeErrors      uint64 `json:"decode_errors"`
	SendErrors        uint64 `json:"send_errors"`
}
