// Constants
package internal

import (
	"encoding/binary"
)

const LEN_U16 	= 0x02
const LEN_U32 	= 0x04
const LEN_U64 	= 0x08

const _OS_PAGE			= 0x1000
const _SLOT_SIZE_PWR	= 1 // can be from 1-5 (inclusive)
// staging slots are what the ring device reads/writes through when it needs aligned memory
const SLOT_SIZE 		= _OS_PAGE << (_SLOT_SIZE_PWR - 1)

// Control request buffers (offsets, lengths, checksums) are encoded with this.
// Defined once so the devices and their callers agree on it.
var Bin = binary.LittleEndian
