package ns16550

import (
	"io"
	"sync"
)

// Model is a UART as seen from the bus.  Transmitted bytes go straight to
// Out, received bytes are queued by Feed.  Raise is called when received
// data becomes available with the receive interrupt enabled; the UART
// is an edge source so it is called once per Feed.
type Model struct {
	mu    sync.Mutex
	out   io.Writer
	rx    []byte
	ier   uint8
	lcr   uint8
	mcr   uint8
	scr   uint8
	Raise func()
}

func NewModel(out io.Writer) *Model {
	return &Model{out: out}
}

// Feed queues bytes for the receiver.
func (m *Model) Feed(p []byte) {
	m.mu.Lock()
	m.rx = append(m.rx, p...)
	raise := m.ier&ReceiveDataAvailable != 0 && len(p) > 0
	m.mu.Unlock()
	if raise && m.Raise != nil {
		m.Raise()
	}
}

// Buffered is the number of bytes waiting to be read.
func (m *Model) Buffered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rx)
}

// Load implements mmio.Device.
func (m *Model) Load(off uintptr, size int) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch off {
	case RBR:
		if len(m.rx) == 0 {
			return 0
		}
		b := m.rx[0]
		m.rx = m.rx[1:]
		return uint64(b)
	case IER:
		return uint64(m.ier)
	case IIR:
		if m.ier&ReceiveDataAvailable != 0 && len(m.rx) > 0 {
			return ReceiveInterruptID
		}
		return NoInterruptPending
	case LCR:
		return uint64(m.lcr)
	case MCR:
		return uint64(m.mcr)
	case LSR:
		lsr := uint64(TransmitHoldingEmptyStatus | TransmitterIdle)
		if len(m.rx) > 0 {
			lsr |= DataReady
		}
		return lsr
	case SCR:
		return uint64(m.scr)
	}
	return 0
}

// Store implements mmio.Device.
func (m *Model) Store(off uintptr, size int, v uint64) {
	m.mu.Lock()
	raise := false
	switch off {
	case THR:
		if m.out != nil {
			m.out.Write([]byte{byte(v)})
		}
	case IER:
		wasOff := m.ier&ReceiveDataAvailable == 0
		m.ier = uint8(v) & (ReceiveDataAvailable | TransmitHoldingEmpty)
		raise = wasOff && m.ier&ReceiveDataAvailable != 0 && len(m.rx) > 0
	case FCR:
		if v&ClearReceiveFIFO != 0 {
			m.rx = nil
		}
	case LCR:
		m.lcr = uint8(v)
	case MCR:
		m.mcr = uint8(v)
	case SCR:
		m.scr = uint8(v)
	}
	m.mu.Unlock()
	if raise && m.Raise != nil {
		m.Raise()
	}
}
