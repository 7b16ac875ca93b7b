package semihosting

import (
	"os"
	"sync"
	"time"
)

type SemiHostingOp uint64

const (
	SemiHostOpClock SemiHostingOp = 0x10
	SemiHostOpExit  SemiHostingOp = 0x18
)

type SemihostingStopCode int

const (
	SemihostingStopBreakpoint          SemihostingStopCode = 0x20020
	SemihostingStopWatchpoint          SemihostingStopCode = 0x20021
	SemihostingStopStepComplete        SemihostingStopCode = 0x20022
	SemihostingStopRuntimeErrorUnknown SemihostingStopCode = 0x20023
	SemihostingStopInternalError       SemihostingStopCode = 0x20024
	SemihostingStopUserInterruption    SemihostingStopCode = 0x20025
	SemihostingStopApplicationExit     SemihostingStopCode = 0x20026
	SemihostingStopStackOverflow       SemihostingStopCode = 0x20027
	SemihostingStopDivisionByZero      SemihostingStopCode = 0x20028
	SemihostingStopOSSpecific          SemihostingStopCode = 0x20029
)

// ParamBlock is the two word block the debugger reads for SYS_EXIT.  On a
// riscv target a1 holds its address when the ebreak sequence is executed.
type ParamBlock struct {
	Reason  SemihostingStopCode
	Subcode uint64
}

// Host is whatever sits on the other side of the semihosting channel.
// On hardware that is the debugger, in a hosted build it is the process.
type Host interface {
	Call(op SemiHostingOp, block *ParamBlock) uint64
}

var (
	hostLock sync.Mutex
	host     Host = &ProcessHost{start: time.Now()}
)

// SetHost replaces the semihosting host and returns the previous one.
func SetHost(h Host) Host {
	hostLock.Lock()
	defer hostLock.Unlock()
	prev := host
	host = h
	return prev
}

func current() Host {
	hostLock.Lock()
	defer hostLock.Unlock()
	return host
}

//Exit reports a normal application exit with the given code.  On a real
//debugger this does not return.
func Exit(code uint64) {
	current().Call(SemiHostOpExit, &ParamBlock{
		Reason:  SemihostingStopApplicationExit,
		Subcode: code,
	})
}

//Abort reports an abnormal stop.  Like Exit it only returns if the host lets it.
func Abort(reason SemihostingStopCode, code uint64) {
	current().Call(SemiHostOpExit, &ParamBlock{Reason: reason, Subcode: code})
}

//Clock returns centiseconds since the host started.
func Clock() uint64 {
	return current().Call(SemiHostOpClock, nil)
}

// ProcessHost maps semihosting calls onto the running process.
type ProcessHost struct {
	start time.Time
}

func (p *ProcessHost) Call(op SemiHostingOp, block *ParamBlock) uint64 {
	switch op {
	case SemiHostOpExit:
		if block.Reason == SemihostingStopApplicationExit {
			os.Exit(int(block.Subcode))
		}
		os.Exit(int(block.Subcode) | 0x80)
	case SemiHostOpClock:
		return uint64(time.Since(p.start) / (10 * time.Millisecond))
	}
	return ^uint64(0)
}

// Recorder is a Host that remembers exit requests instead of acting on
// them.  Exit and Abort return normally when it is installed.
type Recorder struct {
	mu    sync.Mutex
	Exits []ParamBlock
	Ticks uint64
}

func (r *Recorder) Call(op SemiHostingOp, block *ParamBlock) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch op {
	case SemiHostOpExit:
		r.Exits = append(r.Exits, *block)
		return 0
	case SemiHostOpClock:
		return r.Ticks
	}
	return ^uint64(0)
}

// Last returns the most recent exit request, if any.
func (r *Recorder) Last() (ParamBlock, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Exits) == 0 {
		return ParamBlock{}, false
	}
	return r.Exits[len(r.Exits)-1], true
}
