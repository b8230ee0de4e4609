package ws

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/serpentine/internal/config"
	diag "github.com/coreman2200/serpentine/internal/diagnostics"
	"github.com/coreman2200/serpentine/internal/layout"
	"github.com/coreman2200/serpentine/internal/led"
	"github.com/coreman2200/serpentine/internal/pattern"
)

type State struct {
	mu         sync.RWMutex
	Layout     layout.Layout
	FPS        int
	Brightness float64
	ColorOrder string
	WhiteCap   float64
	LimitAmps  float64

	ConfigPath    string
	CurrentDriver string

	out         *led.Output
	frame       []led.Pixel
	rgb         []byte
	frameID     uint64
	phase       float64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool

	testRunner *pattern.Runner
}

// NewState builds the encoder for l and wires it to drv.
func NewState(l layout.Layout, drv led.Driver, colorOrder string, fps int, brightness float64) (*State, error) {
	enc, err := led.NewEncoder(l.Geometry(), colorOrder, brightness)
	if err != nil {
		return nil, err
	}
	return &State{
		Layout:      l,
		FPS:         fps,
		Brightness:  brightness,
		ColorOrder:  colorOrder,
		out:         led.NewOutput(enc, drv),
		frame:       make([]led.Pixel, l.Count()),
		rgb:         make([]byte, l.Count()*3),
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}, nil
}

// SetWhiteCap limits per-pixel power; see led.Encoder.SetWhiteCap.
func (s *State) SetWhiteCap(c float64) {
	s.mu.Lock()
	s.WhiteCap = c
	s.mu.Unlock()
	s.out.SetWhiteCap(c)
}

// RunRenderLoop renders at FPS until ctx is done.
func (s *State) RunRenderLoop(ctx context.Context) {
	fps := s.currentFPS()
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
			if f := s.currentFPS(); f != fps {
				fps = f
				ticker.Reset(time.Second / time.Duration(fps))
			}
		}
	}
}

func (s *State) currentFPS() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return max(1, s.FPS)
}

// Tick renders one frame, sends it to the LEDs and to preview clients.
func (s *State) Tick() {
	s.mu.Lock()
	if s.testRunner != nil {
		if !s.testRunner.Next(s.Layout, s.frame) {
			s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.DONE", Summary: "Test complete",
				Detail: string(s.testRunner.Kind())})
			s.testRunner = nil
		}
	} else {
		s.renderRainbow()
	}
	s.frameID++
	for i, px := range s.frame {
		s.rgb[i*3+0], s.rgb[i*3+1], s.rgb[i*3+2] = px.R, px.G, px.B
	}
	buf := append([]byte{}, s.rgb...)
	frame := s.frame
	s.mu.Unlock()

	if err := s.out.Show(frame); err != nil {
		log.Debug().Err(err).Msg("show frame")
	}
	s.broadcastFrame(buf)
}

// renderRainbow draws a diagonal rainbow in logical coordinates.
func (s *State) renderRainbow() {
	l := s.Layout
	for i := range s.frame {
		x, y := l.Coord(i)
		u := float64(x) / float64(max(1, l.Width()-1))
		v := float64(y) / float64(max(1, l.Rows-1))
		h := math.Mod(u+v+s.phase, 1.0)
		r, g, b := hsvToRGB(h, 1.0, 1.0)
		s.frame[i] = led.Pixel{R: byte(r * 255), G: byte(g * 255), B: byte(b * 255)}
	}
	s.phase += 0.01
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.sendTopology(conn)
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go s.drain(conn, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go s.drain(conn, s.diagClients)
}

// drain reads until the client goes away, then forgets it.
func (s *State) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Msg("control message")
			continue
		}
		s.applyControl(msg)
		s.sendTopology(conn)
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	amps := s.out.Amps()
	resp := map[string]any{
		"frame_id":   s.frameID,
		"uptime_s":   time.Since(s.startTime).Seconds(),
		"count":      s.Layout.Count(),
		"fps":        s.FPS,
		"brightness": s.Brightness,
		"driver":     s.CurrentDriver,
		"amps":       amps,
		"over_limit": s.LimitAmps > 0 && amps > s.LimitAmps,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleOrder serves the wire-order permutation: wire[n] is the logical
// pixel index shown at data-line position n.
func (s *State) HandleOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	l := s.Layout
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"width": l.Width(),
		"rows":  l.Rows,
		"wire":  l.WireOrder(),
	})
}

func (s *State) applyControl(msg map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.Layout
	if v, ok := msg["panel"].(map[string]any); ok {
		if n, ok2 := v["segments"].(float64); ok2 {
			next.Segments = int(n)
		}
		if n, ok2 := v["segmentWidth"].(float64); ok2 {
			next.SegmentWidth = int(n)
		}
		if n, ok2 := v["rows"].(float64); ok2 {
			next.Rows = int(n)
		}
	}
	if v, ok := msg["order"].(map[string]any); ok {
		if b, ok2 := v["zigzag"].(bool); ok2 {
			next.Order.Zigzag = b
		}
		if b, ok2 := v["rightToLeft"].(bool); ok2 {
			next.Order.RightToLeft = b
		}
		if b, ok2 := v["rowReversePhase"].(bool); ok2 {
			next.Order.RowReversePhase = b
		}
	}
	if v, ok := msg["pitchMM"].(float64); ok {
		next.PitchMM = v
	}
	if next != s.Layout {
		s.setLayout(next)
	}
	if v, ok := msg["fps"].(float64); ok && v >= 1 {
		s.FPS = int(v)
	}
	if v, ok := msg["brightness"].(float64); ok {
		s.Brightness = clamp(v, 0, 1)
		s.out.SetBrightness(s.Brightness)
	}
	if v, ok := msg["runTest"].(string); ok {
		if k, known := pattern.Parse(v); known {
			s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: v})
			s.testRunner = pattern.NewRunner(pattern.Plan{Kind: k})
		} else {
			s.pushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: "TEST.UNKNOWN", Summary: "Unknown test name",
				Evidence: map[string]any{"name": v},
			})
		}
	}

	// Persist config after any change
	s.saveConfig()
}

// setLayout swaps in a new geometry; called with s.mu held.
func (s *State) setLayout(next layout.Layout) {
	if d, bad := diag.FromLayout(next); bad {
		s.pushDiag(d)
		return
	}
	enc, err := led.NewEncoder(next.Geometry(), s.ColorOrder, s.Brightness)
	if err != nil {
		log.Warn().Err(err).Msg("rebuild encoder")
		return
	}
	enc.SetWhiteCap(s.WhiteCap)
	if next.Count() != s.Layout.Count() {
		log.Warn().Int("from", s.Layout.Count()).Int("to", next.Count()).
			Msg("pixel count changed; driver keeps its original size")
		s.frame = make([]led.Pixel, next.Count())
		s.rgb = make([]byte, next.Count()*3)
	}
	s.out.Swap(enc)
	s.Layout = next
	s.testRunner = nil
}

func (s *State) saveConfig() {
	if s.ConfigPath == "" {
		return
	}
	cfg := config.Default()
	cfg.Driver = s.CurrentDriver
	cfg.ColorOrder = s.ColorOrder
	cfg.Brightness = s.Brightness
	cfg.FPS = s.FPS
	cfg.Power.WhiteCap = s.WhiteCap
	cfg.Power.LimitAmps = s.LimitAmps
	cfg.FromLayout(s.Layout)
	if err := config.Save(s.ConfigPath, cfg); err != nil {
		log.Warn().Err(err).Str("path", s.ConfigPath).Msg("save config")
	}
}

func (s *State) sendTopology(conn *websocket.Conn) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l := s.Layout
	top := map[string]any{
		"panel": map[string]int{"segments": l.Segments, "segmentWidth": l.SegmentWidth, "rows": l.Rows},
		"order": map[string]bool{
			"zigzag":          l.Order.Zigzag,
			"rightToLeft":     l.Order.RightToLeft,
			"rowReversePhase": l.Order.RowReversePhase,
		},
		"pitchMM": l.PitchMM,
		"driver":  s.CurrentDriver,
	}
	b, _ := json.Marshal(top)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

func (s *State) broadcastFrame(rgb []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type frame struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		RGB     []byte `json:"rgb"`
	}
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: s.frameID, RGB: rgb})
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

// pushDiag is called with s.mu held.
func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - f*s)
	t := v * (1.0 - (1.0-f)*s)
	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
