package usbtmc

import "time"

// Interface identification (USBTMC 1.0, USB488 1.0)
const (
	InterfaceClass    = 0xFE // application specific
	InterfaceSubClass = 0x03 // test and measurement
	ProtocolUSBTMC    = 0x00
	ProtocolUSB488    = 0x01
)

// Bulk message IDs
const (
	MsgDevDepMsgOut       = 1
	MsgRequestDevDepMsgIn = 2
	MsgDevDepMsgIn        = 2
)

// Bulk header layout
const (
	HeaderSize         = 12
	AttrEOM            = 0x01 // last transfer of a message
	AttrTermCharEnable = 0x02 // stop the IN transfer on TermChar
	MaxTransferSize    = 1 << 20
)

// Class-specific control requests
const (
	ReqInitiateAbortBulkOut = 1
	ReqInitiateAbortBulkIn  = 3
	ReqInitiateClear        = 5
	ReqCheckClearStatus     = 6
	ReqGetCapabilities      = 7
	ReqReadStatusByte       = 128 // USB488
	ReqRenControl           = 160 // USB488
	ReqGoToLocal            = 161 // USB488
	ReqLocalLockout         = 162 // USB488
)

// Control request types
const (
	RequestTypeClassInterfaceIn = 0xA1
)

// Control status values
const (
	StatusSuccess = 0x01
	StatusPending = 0x02
	StatusFailed  = 0x80
)

// Timeouts
const (
	DefaultTimeout   = 3 * time.Second
	ClearPollDelay   = 10 * time.Millisecond
	ClearPollRetries = 100
)
