package riscv

// mstatus fields
const (
	MstatusSIE  = uint64(1) << 1
	MstatusMIE  = uint64(1) << 3
	MstatusSPIE = uint64(1) << 5
	MstatusMPIE = uint64(1) << 7
	MstatusMPP  = uint64(3) << 11
	MstatusFS   = uint64(3) << 13
)

// Privilege is an encoding of MPP.
type Privilege uint64

const (
	User       Privilege = 0
	Supervisor Privilege = 1
	Machine    Privilege = 3
)

// FS states
const (
	FSOff     = uint64(0) << 13
	FSInitial = uint64(1) << 13
	FSClean   = uint64(2) << 13
	FSDirty   = uint64(3) << 13
)

// MPP extracts the previous privilege field from an mstatus value.
func MPP(mstatus uint64) Privilege {
	return Privilege((mstatus & MstatusMPP) >> 11)
}

// WithMPP returns mstatus with the previous privilege replaced.
func WithMPP(mstatus uint64, p Privilege) uint64 {
	return mstatus&^MstatusMPP | (uint64(p)<<11)&MstatusMPP
}
