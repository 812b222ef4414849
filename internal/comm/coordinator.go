package comm

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lokhorst/rebound/internal/sim"
	"github.com/lokhorst/rebound/internal/tree"
)

const (
	kindHello     = "hello"
	kindParticles = "particles"
	kindEssential = "essential"
)

type message struct {
	Kind      string
	Rank      int
	Particles []sim.Particle       `json:",omitempty"`
	Cells     []tree.EssentialCell `json:",omitempty"`
}

// Coordinator implements sim.Coordinator over one websocket connection per
// peer. Both exchange calls follow the same pattern: write to every peer,
// then read from every peer, so the call returns only once all peers have
// reached the same phase.
type Coordinator struct {
	Part  Partition
	Index *tree.Tree

	upgrader websocket.Upgrader
	server   *http.Server

	mu    sync.Mutex
	ready *sync.Cond
	conns map[int]*websocket.Conn
}

// New creates a coordinator for this partition. idx is the local spatial
// index; received particles are merged into it and received essential cells
// installed on it.
func New(part Partition, idx *tree.Tree) *Coordinator {
	c := &Coordinator{
		Part:  part,
		Index: idx,
		conns: make(map[int]*websocket.Conn),
	}
	c.ready = sync.NewCond(&c.mu)
	return c
}

// Listen starts accepting peer connections on addr ("host:0" picks a free
// port) and returns the bound address.
func (c *Coordinator) Listen(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", c.handle)
	c.server = &http.Server{Handler: mux}
	go c.server.Serve(ln)
	return ln.Addr().String(), nil
}

func (c *Coordinator) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	var hello message
	if err := conn.ReadJSON(&hello); err != nil || hello.Kind != kindHello {
		conn.Close()
		return
	}
	c.mu.Lock()
	c.conns[hello.Rank] = conn
	c.ready.Broadcast()
	c.mu.Unlock()
}

// Connect dials every higher-ranked peer and waits for every lower-ranked
// peer to dial in. peers maps rank to "host:port". Blocks until the full
// mesh is up or ctx is done.
func (c *Coordinator) Connect(ctx context.Context, peers map[int]string) error {
	for rank, addr := range peers {
		if rank <= c.Part.Rank {
			continue
		}
		url := fmt.Sprintf("ws://%s/ws", addr)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return fmt.Errorf("comm: dialing rank %d: %w", rank, err)
		}
		if err := conn.WriteJSON(message{Kind: kindHello, Rank: c.Part.Rank}); err != nil {
			conn.Close()
			return err
		}
		c.mu.Lock()
		c.conns[rank] = conn
		c.mu.Unlock()
	}

	done := make(chan struct{})
	go func() {
		c.mu.Lock()
		for len(c.conns) < c.Part.Size-1 {
			c.ready.Wait()
		}
		c.mu.Unlock()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears down all peer connections and the listener.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	for _, conn := range c.conns {
		conn.Close()
	}
	c.conns = make(map[int]*websocket.Conn)
	c.mu.Unlock()
	if c.server != nil {
		return c.server.Close()
	}
	return nil
}

// Prune drops the real particles this rank does not own. Every rank builds
// the full initial conditions; pruning once up front leaves each particle on
// exactly one rank.
func (c *Coordinator) Prune(s *sim.Simulation) {
	rootN := s.RootN()
	for i := s.NReal() - 1; i >= 0; i-- {
		root := c.Index.RootIndexOf(s, s.Particles[i])
		if root < 0 || !c.Part.Owns(root, rootN) {
			s.RemoveParticle(i)
		}
	}
}

// DistributeParticles migrates particles whose root box is owned by another
// rank, then merges the particles received in return. The exchange is a
// barrier: every peer sends one particles message and reads one from every
// other peer before continuing.
func (c *Coordinator) DistributeParticles(s *sim.Simulation) error {
	rootN := s.RootN()
	c.Index.Local = func(root int) bool {
		return c.Part.Owns(root, rootN)
	}
	outgoing := make(map[int][]sim.Particle)

	// Shadow particles never migrate; scan the physical records backwards
	// so removal keeps pending indices valid.
	for i := s.NReal() - 1; i >= 0; i-- {
		p := s.Particles[i]
		root := c.Index.RootIndexOf(s, p)
		if root < 0 {
			return tree.ErrOutsideDomain
		}
		owner := c.Part.OwnerOf(root, rootN)
		if owner != c.Part.Rank {
			outgoing[owner] = append(outgoing[owner], p)
			s.RemoveParticle(i)
		}
	}

	received, err := c.exchange(message{Kind: kindParticles, Rank: c.Part.Rank}, outgoing)
	if err != nil {
		return err
	}
	merged := false
	for _, m := range received {
		for _, p := range m.Particles {
			s.AddParticle(p)
			merged = true
		}
	}
	if merged || len(outgoing) > 0 {
		// Membership changed; bring the index back in line before the
		// gravity phases read it.
		return c.Index.Update(s)
	}
	return nil
}

// DistributeEssentialTree sends the locally-prepared essential cells to
// every peer and installs the union of the received cells on the index.
func (c *Coordinator) DistributeEssentialTree(s *sim.Simulation) error {
	local := c.Index.Essential()
	out := make(map[int][]tree.EssentialCell)
	for rank := 0; rank < c.Part.Size; rank++ {
		if rank != c.Part.Rank {
			out[rank] = local
		}
	}

	c.mu.Lock()
	conns := make(map[int]*websocket.Conn, len(c.conns))
	for r, conn := range c.conns {
		conns[r] = conn
	}
	c.mu.Unlock()

	// Reads start before the writes finish so two peers blocked writing to
	// each other cannot deadlock.
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var writeErr error
	for rank, conn := range conns {
		wg.Add(1)
		go func(rank int, conn *websocket.Conn) {
			defer wg.Done()
			if err := conn.WriteJSON(message{Kind: kindEssential, Rank: c.Part.Rank, Cells: out[rank]}); err != nil {
				errMu.Lock()
				if writeErr == nil {
					writeErr = err
				}
				errMu.Unlock()
			}
		}(rank, conn)
	}

	var remote []tree.EssentialCell
	for rank, conn := range conns {
		var m message
		if err := conn.ReadJSON(&m); err != nil {
			wg.Wait()
			return fmt.Errorf("comm: reading from rank %d: %w", rank, err)
		}
		remote = append(remote, m.Cells...)
	}
	wg.Wait()
	if writeErr != nil {
		return writeErr
	}
	c.Index.SetRemote(remote)
	return nil
}

// exchange writes one message per peer (payload from out, empty when the
// peer has nothing inbound) and reads one message from every peer.
func (c *Coordinator) exchange(base message, out map[int][]sim.Particle) ([]message, error) {
	c.mu.Lock()
	conns := make(map[int]*websocket.Conn, len(c.conns))
	for r, conn := range c.conns {
		conns[r] = conn
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var writeErr error
	for rank, conn := range conns {
		wg.Add(1)
		go func(rank int, conn *websocket.Conn) {
			defer wg.Done()
			m := base
			m.Particles = out[rank]
			if err := conn.WriteJSON(m); err != nil {
				errMu.Lock()
				if writeErr == nil {
					writeErr = err
				}
				errMu.Unlock()
			}
		}(rank, conn)
	}

	received := make([]message, 0, len(conns))
	for rank, conn := range conns {
		var m message
		if err := conn.ReadJSON(&m); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("comm: reading from rank %d: %w", rank, err)
		}
		received = append(received, m)
	}
	wg.Wait()
	if writeErr != nil {
		return nil, writeErr
	}
	return received, nil
}
