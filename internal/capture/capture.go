package capture

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Report is one raw telemetry line received from a feed
type Report struct {
	Source    string
	Line      string
	Timestamp time.Time
}

// Capture maintains TCP connections to telemetry feeds and emits the
// newline-delimited reports they send
type Capture struct {
	sources    []string
	conns      map[string]net.Conn
	reportChan chan Report
	wg         sync.WaitGroup
	stopChan   chan struct{}
	mu         sync.Mutex
}

// New creates a new Capture instance
func New(sources []string) *Capture {
	return &Capture{
		sources:    sources,
		conns:      make(map[string]net.Conn),
		reportChan: make(chan Report, 1000),
		stopChan:   make(chan struct{}),
	}
}

// Start begins reading telemetry from all sources
func (c *Capture) Start() error {
	for _, source := range c.sources {
		c.wg.Add(1)
		go c.connectToSource(source)
	}
	return nil
}

// Stop gracefully stops the capture
func (c *Capture) Stop() {
	close(c.stopChan)
	c.mu.Lock()
	for _, conn := range c.conns {
		conn.Close()
	}
	c.mu.Unlock()
	c.wg.Wait()
	close(c.reportChan)
}

// Reports returns the channel of received telemetry lines
func (c *Capture) Reports() <-chan Report {
	return c.reportChan
}

func (c *Capture) connectToSource(source string) {
	defer c.wg.Done()

	reconnectDelay := 5 * time.Second
	var disconnectTime time.Time

	for {
		select {
		case <-c.stopChan:
			return
		default:
			conn, err := net.Dial("tcp", source)
			if err != nil {
				if disconnectTime.IsZero() {
					disconnectTime = time.Now()
				}
				select {
				case <-c.stopChan:
					return
				case <-time.After(reconnectDelay):
				}
				continue
			}

			c.configureKeepalive(conn, source)

			if disconnectTime.IsZero() {
				fmt.Printf("Connected to telemetry feed %s\n", source)
			} else {
				fmt.Printf("Reconnected to %s after %.1fs\n", source, time.Since(disconnectTime).Seconds())
				disconnectTime = time.Time{}
			}

			c.mu.Lock()
			c.conns[source] = conn
			c.mu.Unlock()

			c.readLines(source, conn)

			c.mu.Lock()
			delete(c.conns, source)
			c.mu.Unlock()

			disconnectTime = time.Now()
		}
	}
}

func (c *Capture) configureKeepalive(conn net.Conn, source string) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			fmt.Printf("Warning: failed to set keepalive for %s: %v\n", source, err)
		}
		if err := tcpConn.SetKeepAlivePeriod(2 * time.Second); err != nil {
			fmt.Printf("Warning: failed to set keepalive period for %s: %v\n", source, err)
		}
		if err := tcpConn.SetNoDelay(true); err != nil {
			fmt.Printf("Warning: failed to set no delay for %s: %v\n", source, err)
		}
	}
}

// readLines consumes one connection until it fails or the capture stops.
// Telemetry feeds send one report per line.
func (c *Capture) readLines(source string, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-c.stopChan:
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		select {
		case c.reportChan <- Report{
			Source:    source,
			Line:      line,
			Timestamp: time.Now().UTC(),
		}:
		case <-c.stopChan:
			return
		}
	}
}
